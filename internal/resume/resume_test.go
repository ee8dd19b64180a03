package resume

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/muhammadolammi/resumefolio/internal/llm"
)

const validResume = `{
  "personal_info": {"full_name": "Jane Doe", "professional_title": "Engineer",
    "contact": {"email": "jane@example.com"}},
  "professional_summary": "Builds things.",
  "experience": [{"company": "Acme", "position": "SWE",
    "dates": {"start": "2020-01", "end": "Present"}, "highlights": ["Shipped X"]}],
  "education": [],
  "technical_skills": {"languages": ["Go"]},
  "projects": [],
  "additional_sections": {}
}`

func stub(response string, err error) (llm.Generator, *[]string) {
	var calls []string
	gen := llm.GeneratorFunc(func(ctx context.Context, system, user string) (string, error) {
		calls = append(calls, system, user)
		return response, err
	})
	return gen, &calls
}

func TestParseReturnsDecodedRecord(t *testing.T) {
	gen, calls := stub(validResume, nil)

	got, err := NewParser(gen).Parse(context.Background(), "JANE DOE\nEngineer")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var want Record
	if err := json.Unmarshal([]byte(validResume), &want); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Parse mismatch (-want +got):\n%s", diff)
	}
	if got.FullName() != "Jane Doe" {
		t.Fatalf("FullName = %q", got.FullName())
	}
	if (*calls)[0] != systemPrompt {
		t.Fatalf("system prompt = %q", (*calls)[0])
	}
	if !strings.Contains((*calls)[1], "JANE DOE\nEngineer") {
		t.Fatal("prompt does not embed the extracted text")
	}
}

func TestParseRejectsNonJSON(t *testing.T) {
	for _, response := range []string{
		"not json",
		"```json\n{\"a\":1}\n```",
		`["an", "array"]`,
		"null",
		"",
	} {
		gen, _ := stub(response, nil)
		got, err := NewParser(gen).Parse(context.Background(), "text")
		if err == nil {
			t.Fatalf("Parse(%q): expected error", response)
		}
		if !errors.Is(err, ErrUnstructuredResponse) {
			t.Fatalf("Parse(%q): error %v does not wrap ErrUnstructuredResponse", response, err)
		}
		if got != nil {
			t.Fatalf("Parse(%q): returned partial record %v", response, got)
		}
	}
}

func TestParseWrapsDecodeError(t *testing.T) {
	gen, _ := stub("not json", nil)
	_, err := NewParser(gen).Parse(context.Background(), "text")
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected wrapped *json.SyntaxError, got %v", err)
	}
}

func TestParsePropagatesModelError(t *testing.T) {
	cause := &llm.CallError{Err: errors.New("network down")}
	gen, _ := stub("", cause)
	_, err := NewParser(gen).Parse(context.Background(), "text")
	var callErr *llm.CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected *llm.CallError, got %v", err)
	}
	if errors.Is(err, ErrUnstructuredResponse) {
		t.Fatal("model failure must not be reported as unstructured response")
	}
}

func TestBuildPromptEmbedsSchemaAndRules(t *testing.T) {
	prompt := BuildPrompt("RESUME BODY")
	for _, want := range []string{
		`"personal_info"`,
		`"additional_sections"`,
		"schema version " + SchemaVersion,
		"ISO 8601",
		"Preserve original section order",
		"_confidence",
		"markdown",
		"RESUME BODY",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "{{") {
		t.Fatal("prompt has unreplaced placeholders")
	}
}

func TestSchemaIsValidJSON(t *testing.T) {
	var v map[string]any
	if err := json.Unmarshal([]byte(Schema()), &v); err != nil {
		t.Fatalf("schema is not valid json: %v", err)
	}
	for _, key := range []string{"personal_info", "professional_summary", "experience", "education", "technical_skills", "projects", "additional_sections"} {
		if _, ok := v[key]; !ok {
			t.Fatalf("schema missing %q", key)
		}
	}
}
