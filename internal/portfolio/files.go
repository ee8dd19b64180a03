package portfolio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// File is one generated source file.
type File struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	IsBinary bool   `json:"is_binary"`
}

var (
	headerRe = regexp.MustCompile(`(?s)=== (.*?) ===\n`)

	ErrPathEscapes = errors.New("path escapes output directory")
)

const blockEnd = "\n==="

// ParseFiles extracts `=== path ===` blocks from a model reply. Each block's
// content runs to the next "\n===" or the end of text. Path and content are
// trimmed and a repeated path keeps the last block.
func ParseFiles(raw string) map[string]File {
	files := make(map[string]File)
	pos := 0
	for pos < len(raw) {
		loc := headerRe.FindStringSubmatchIndex(raw[pos:])
		if loc == nil {
			break
		}
		path := strings.TrimSpace(raw[pos+loc[2] : pos+loc[3]])
		start := pos + loc[1]
		end := len(raw)
		if idx := strings.Index(raw[start:], blockEnd); idx >= 0 {
			end = start + idx
		}
		files[path] = File{
			Path:    path,
			Content: strings.TrimSpace(raw[start:end]),
		}
		pos = end
	}
	return files
}

// Paths returns the file paths in sorted order.
func Paths(files map[string]File) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// WriteFiles writes every file under outputDir, creating parent directories and
// overwriting existing files. Content is written as UTF-8 for binary-flagged
// entries too.
func WriteFiles(outputDir string, files map[string]File) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, rel := range Paths(files) {
		full, err := resolve(outputDir, rel)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return fmt.Errorf("create dir for %s: %w", rel, err)
		}
		if err := os.WriteFile(full, []byte(files[rel].Content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
	}
	return nil
}

func resolve(outputDir, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, rel)
	}
	base := filepath.Clean(outputDir)
	full := filepath.Join(base, rel)
	inside, err := filepath.Rel(base, full)
	if err != nil || inside == "." || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, rel)
	}
	return full, nil
}
