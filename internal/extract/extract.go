// Package extract pulls plain text out of resume documents.
// Libraries used: github.com/ledongthuc/pdf (PDF) and github.com/nguyenthenguyen/docx (DOCX).
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is matched by every UnsupportedFormatError.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// UnsupportedFormatError names the extension that has no reader.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %s", e.Ext)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// Extractor reads a document format into plain text.
type Extractor interface {
	ExtractFile(path string) (string, error)
	ExtractBytes(data []byte) (string, error)
}

// ForPath selects an Extractor by the file extension, case-insensitively.
func ForPath(path string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return PDF{}, nil
	case ".docx":
		return DOCX{}, nil
	default:
		return nil, &UnsupportedFormatError{Ext: ext}
	}
}

// Extract returns the text of the document at path.
func Extract(path string) (string, error) {
	ex, err := ForPath(path)
	if err != nil {
		return "", err
	}
	text, err := ex.ExtractFile(path)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}
	return text, nil
}

// FromBytes extracts an in-memory document; name only supplies the extension.
func FromBytes(name string, data []byte) (string, error) {
	ex, err := ForPath(name)
	if err != nil {
		return "", err
	}
	text, err := ex.ExtractBytes(data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(name), err)
	}
	return text, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty document")
	}
	return data, nil
}
