// Package portfolio asks the model for website sources and writes them to disk.
package portfolio

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/muhammadolammi/resumefolio/internal/llm"
	"github.com/muhammadolammi/resumefolio/internal/questionnaire"
	"github.com/muhammadolammi/resumefolio/internal/resume"
)

const systemPrompt = "You are an expert React full-stack developer"

var (
	//go:embed prompts/react_v1.txt
	reactPromptV1 string
	//go:embed prompts/file_tree.txt
	fileTree string
)

type Generator struct {
	llm llm.Generator
}

func NewGenerator(gen llm.Generator) *Generator {
	return &Generator{llm: gen}
}

// Generate returns the files found in the model's reply. A reply without any
// file blocks yields an empty map.
func (g *Generator) Generate(ctx context.Context, record resume.Record, answers questionnaire.Answers) (map[string]File, error) {
	prompt, err := BuildPrompt(record, answers)
	if err != nil {
		return nil, err
	}
	response, err := g.llm.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	return ParseFiles(response), nil
}

func BuildPrompt(record resume.Record, answers questionnaire.Answers) (string, error) {
	resumeJSON, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode resume for portfolio: %w", err)
	}
	if answers == nil {
		answers = questionnaire.Answers{}
	}
	answersJSON, err := json.MarshalIndent(answers, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode design answers: %w", err)
	}
	replacer := strings.NewReplacer(
		"{{RESUME_JSON}}", string(resumeJSON),
		"{{DESIGN_CHOICES}}", string(answersJSON),
		"{{FILE_STRUCTURE}}", strings.TrimRight(fileTree, "\n"),
	)
	return replacer.Replace(reactPromptV1), nil
}
