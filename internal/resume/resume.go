// Package resume turns extracted resume text into a structured Record via the model.
package resume

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/muhammadolammi/resumefolio/internal/llm"
)

const (
	SchemaVersion = "v1"
	systemPrompt  = "You are an expert resume parser"
)

var (
	//go:embed schema/v1.json
	schemaV1 string
	//go:embed prompts/parse_v1.txt
	parsePromptV1 string
)

// ErrUnstructuredResponse is wrapped, together with the decode error, when the model
// response is not a JSON object.
var ErrUnstructuredResponse = errors.New("response not parseable as structured data")

// Record is the parsed resume. Fields are passed through to later stages untouched.
type Record map[string]any

// FullName returns personal_info.full_name when present.
func (r Record) FullName() string {
	info, ok := r["personal_info"].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := info["full_name"].(string)
	return name
}

// Schema returns the JSON schema description embedded in the prompt.
func Schema() string {
	return schemaV1
}

type Parser struct {
	llm llm.Generator
}

func NewParser(gen llm.Generator) *Parser {
	return &Parser{llm: gen}
}

// Parse asks the model to structure text and decodes the reply strictly.
// Markdown fences or surrounding prose are not stripped.
func (p *Parser) Parse(ctx context.Context, text string) (Record, error) {
	response, err := p.llm.Generate(ctx, systemPrompt, BuildPrompt(text))
	if err != nil {
		return nil, err
	}
	return Decode(response)
}

// BuildPrompt renders the parse prompt for the given resume text.
func BuildPrompt(text string) string {
	replacer := strings.NewReplacer(
		"{{SCHEMA_VERSION}}", SchemaVersion,
		"{{SCHEMA}}", strings.TrimSpace(schemaV1),
		"{{CONTENT}}", text,
	)
	return replacer.Replace(parsePromptV1)
}

// Decode parses a model response as a resume Record.
func Decode(response string) (Record, error) {
	var record Record
	if err := json.Unmarshal([]byte(response), &record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnstructuredResponse, err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: top-level value is null", ErrUnstructuredResponse)
	}
	return record, nil
}
