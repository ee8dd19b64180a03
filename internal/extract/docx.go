package extract

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// DOCX joins paragraph text with a single newline, in document order.
type DOCX struct{}

func (d DOCX) ExtractFile(path string) (string, error) {
	data, err := readFile(path)
	if err != nil {
		return "", err
	}
	return d.ExtractBytes(data)
}

func (DOCX) ExtractBytes(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	paragraphs, err := paragraphText(doc.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("failed to read docx body: %w", err)
	}
	return strings.Join(paragraphs, "\n"), nil
}

// paragraphText walks word/document.xml and returns the text of every w:p.
func paragraphText(raw string) ([]string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var (
		paragraphs []string
		current    strings.Builder
		depth      int // open w:p elements
		inText     bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					current.Reset()
				}
				depth++
			case "t":
				inText = true
			case "tab":
				if depth > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if depth > 0 {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					continue
				}
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, current.String())
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && depth > 0 {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}
