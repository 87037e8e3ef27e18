// Package pdftext extracts plain text from uploaded PDFs.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var ErrNoText = errors.New("no text could be extracted from PDF")

// Extractor implements documents.TextExtractor for application/pdf.
// Other media types yield empty text. MaxChars caps the result; 0 means no cap.
type Extractor struct {
	MaxChars int
}

func (e Extractor) Extract(data []byte, mediaType string) (string, error) {
	if mediaType != "application/pdf" {
		return "", nil
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// skip unreadable pages
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
		if e.MaxChars > 0 && sb.Len() >= e.MaxChars {
			break
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", ErrNoText
	}
	if e.MaxChars > 0 && len(out) > e.MaxChars {
		out = out[:e.MaxChars]
	}
	return out, nil
}
