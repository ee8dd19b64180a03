package gemini

import (
	"context"
	"testing"

	"google.golang.org/genai"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), Config{APIKey: "  "}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestFinalTextSkipsThoughts(t *testing.T) {
	parts := []*genai.Part{
		{Text: "thinking...", Thought: true},
		{Text: `{"a":`},
		nil,
		{Text: `1}`},
	}
	if got := finalText(parts); got != `{"a":1}` {
		t.Fatalf("finalText = %q", got)
	}
}
