package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF concatenates per-page text in page order, with no separator.
type PDF struct{}

func (p PDF) ExtractFile(path string) (string, error) {
	data, err := readFile(path)
	if err != nil {
		return "", err
	}
	return p.ExtractBytes(data)
}

func (PDF) ExtractBytes(data []byte) (string, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		textBuilder.WriteString(text)
	}
	return textBuilder.String(), nil
}
