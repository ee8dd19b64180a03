// Package questionnaire asks the model for design-clarification questions and collects answers.
package questionnaire

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/muhammadolammi/resumefolio/internal/llm"
	"github.com/muhammadolammi/resumefolio/internal/resume"
)

const systemPrompt = "You are a UX-focused portfolio design assistant"

// Question types the prompt requires the model to cover.
const (
	TypeMissingInfo         = "missing_info"
	TypeDesignPreference    = "design_preference"
	TypeContentEmphasis     = "content_emphasis"
	TypeStyleCustomization  = "style_customization"
	TypeInteractiveElements = "interactive_elements"
)

//go:embed prompts/questions_v1.txt
var questionsPromptV1 string

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Question struct {
	QuestionType string   `json:"question_type"`
	QuestionText string   `json:"question_text"`
	Options      []Option `json:"options"`
	Multiselect  bool     `json:"multiselect"`
}

// Answers maps question_type to a free-text answer.
type Answers map[string]string

type Generator struct {
	llm    llm.Generator
	logger *log.Logger
}

func NewGenerator(gen llm.Generator, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{llm: gen, logger: logger}
}

// Generate returns the model's questions. An undecodable reply yields an empty list
// and a nil error; only a failed model call is an error.
func (g *Generator) Generate(ctx context.Context, record resume.Record) ([]Question, error) {
	prompt, err := BuildPrompt(record)
	if err != nil {
		return nil, err
	}
	response, err := g.llm.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	questions, err := Decode(response)
	if err != nil {
		g.logger.Printf("questionnaire response not decodable, continuing without questions: %v", err)
		return []Question{}, nil
	}
	return questions, nil
}

// BuildPrompt renders the questionnaire prompt around the indented resume JSON.
func BuildPrompt(record resume.Record) (string, error) {
	resumeJSON, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode resume for questionnaire: %w", err)
	}
	return strings.Replace(questionsPromptV1, "{{RESUME_JSON}}", string(resumeJSON), 1), nil
}

// Decode parses a JSON array of questions.
func Decode(response string) ([]Question, error) {
	var questions []Question
	if err := json.Unmarshal([]byte(response), &questions); err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []Question{}
	}
	return questions, nil
}
