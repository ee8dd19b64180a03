package portfolio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/muhammadolammi/resumefolio/internal/llm"
	"github.com/muhammadolammi/resumefolio/internal/questionnaire"
	"github.com/muhammadolammi/resumefolio/internal/resume"
)

func TestParseFiles(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]File
	}{
		{
			name: "two blocks",
			raw:  "=== a/b.txt ===\nhello\n=== c.txt ===\nworld",
			want: map[string]File{
				"a/b.txt": {Path: "a/b.txt", Content: "hello"},
				"c.txt":   {Path: "c.txt", Content: "world"},
			},
		},
		{
			name: "closing markers and prose",
			raw: "Here are the files.\n\n=== src/App.jsx ===\n" +
				"export default function App() {\n  return null;\n}\n===\n\n" +
				"=== src/styles/theme.css ===\n:root { --accent: #333; }\n===\n",
			want: map[string]File{
				"src/App.jsx":          {Path: "src/App.jsx", Content: "export default function App() {\n  return null;\n}"},
				"src/styles/theme.css": {Path: "src/styles/theme.css", Content: ":root { --accent: #333; }"},
			},
		},
		{
			name: "duplicate path keeps last",
			raw:  "=== x.txt ===\nfirst\n=== x.txt ===\nsecond",
			want: map[string]File{"x.txt": {Path: "x.txt", Content: "second"}},
		},
		{
			name: "padded path and content",
			raw:  "===  spaced.md  ===\n\n  body  \n",
			want: map[string]File{"spaced.md": {Path: "spaced.md", Content: "body"}},
		},
		{
			name: "no markers",
			raw:  "I could not generate any files.",
			want: map[string]File{},
		},
		{
			name: "empty",
			raw:  "",
			want: map[string]File{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFiles(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ParseFiles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFilesNeverBinary(t *testing.T) {
	for _, f := range ParseFiles("=== logo.png ===\n\x89PNG") {
		if f.IsBinary {
			t.Fatalf("%s flagged binary", f.Path)
		}
	}
}

func TestParseFilesIdempotent(t *testing.T) {
	raw := "=== a.js ===\nconst a = 1;\n===\n=== b/c.css ===\n.c {}\n"
	first := ParseFiles(raw)
	second := ParseFiles(raw)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("ParseFiles not deterministic (-first +second):\n%s", diff)
	}
}

func TestPathsSorted(t *testing.T) {
	files := map[string]File{"z.txt": {}, "a/b.txt": {}, "m.txt": {}}
	want := []string{"a/b.txt", "m.txt", "z.txt"}
	if diff := cmp.Diff(want, Paths(files)); diff != "" {
		t.Fatalf("Paths mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteFilesCreatesTree(t *testing.T) {
	out := filepath.Join(t.TempDir(), "site")
	files := ParseFiles("=== a/b.txt ===\nhello\n=== c.txt ===\nwörld")
	if err := WriteFiles(out, files); err != nil {
		t.Fatalf("WriteFiles: %v", err)
	}
	for rel, want := range map[string]string{"a/b.txt": "hello", "c.txt": "wörld"} {
		data, err := os.ReadFile(filepath.Join(out, rel))
		if err != nil {
			t.Fatalf("read %s: %v", rel, err)
		}
		if string(data) != want {
			t.Fatalf("%s = %q, want %q", rel, data, want)
		}
	}
}

func TestWriteFilesOverwrites(t *testing.T) {
	out := t.TempDir()
	if err := os.WriteFile(filepath.Join(out, "index.html"), []byte("old content that is longer"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := WriteFiles(out, map[string]File{"index.html": {Path: "index.html", Content: "new"}}); err != nil {
		t.Fatalf("WriteFiles: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(out, "index.html"))
	if string(data) != "new" {
		t.Fatalf("content = %q", data)
	}
}

func TestWriteFilesBinaryFlagWritesUTF8(t *testing.T) {
	out := t.TempDir()
	if err := WriteFiles(out, map[string]File{"note.bin": {Path: "note.bin", Content: "héllo", IsBinary: true}}); err != nil {
		t.Fatalf("WriteFiles: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(out, "note.bin"))
	if string(data) != "héllo" {
		t.Fatalf("content = %q", data)
	}
}

func TestWriteFilesEmptyMapCreatesDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty")
	if err := WriteFiles(out, map[string]File{}); err != nil {
		t.Fatalf("WriteFiles: %v", err)
	}
	if info, err := os.Stat(out); err != nil || !info.IsDir() {
		t.Fatalf("output dir not created: %v", err)
	}
}

func TestWriteFilesRejectsEscapingPaths(t *testing.T) {
	for _, rel := range []string{"../evil.txt", "a/../../evil.txt", "/etc/evil", ""} {
		err := WriteFiles(t.TempDir(), map[string]File{rel: {Path: rel, Content: "x"}})
		if !errors.Is(err, ErrPathEscapes) {
			t.Fatalf("WriteFiles(%q): expected ErrPathEscapes, got %v", rel, err)
		}
	}
}

func TestGenerateParsesReply(t *testing.T) {
	var gotSystem, gotUser string
	gen := llm.GeneratorFunc(func(ctx context.Context, system, user string) (string, error) {
		gotSystem, gotUser = system, user
		return "=== src/components/App.jsx ===\n/** @component */\n", nil
	})
	record := resume.Record{"personal_info": map[string]any{"full_name": "Jane Doe"}}
	answers := questionnaire.Answers{questionnaire.TypeDesignPreference: "minimal"}

	files, err := NewGenerator(gen).Generate(context.Background(), record, answers)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if f, ok := files["src/components/App.jsx"]; !ok || f.Content != "/** @component */" {
		t.Fatalf("files = %v", files)
	}
	if gotSystem != systemPrompt {
		t.Fatalf("system prompt = %q", gotSystem)
	}
	for _, want := range []string{`"full_name": "Jane Doe"`, `"design_preference": "minimal"`, "Experience.module.css", "React 18+", "WCAG 2.1 AA", "=== relative_file_path ==="} {
		if !strings.Contains(gotUser, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestGenerateModelError(t *testing.T) {
	cause := errors.New("boom")
	gen := llm.GeneratorFunc(func(ctx context.Context, system, user string) (string, error) {
		return "", cause
	})
	if _, err := NewGenerator(gen).Generate(context.Background(), resume.Record{}, nil); !errors.Is(err, cause) {
		t.Fatalf("expected model error, got %v", err)
	}
}

func TestBuildPromptNilAnswers(t *testing.T) {
	prompt, err := BuildPrompt(resume.Record{}, nil)
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}
	if !strings.Contains(prompt, "2. Design Choices:\n{}") {
		t.Fatalf("nil answers not rendered as empty object:\n%s", prompt)
	}
}
