// Package ingest turns raw request input into ordered paragraphs.
package ingest

import (
	"regexp"
	"strings"

	"github.com/ivlev/companyfacts/internal/model"
)

// blankLine matches one or more blank lines, the paragraph boundary.
var blankLine = regexp.MustCompile(`\n\s*\n+`)

// Split breaks text into blank-line-delimited paragraphs. Surrounding
// whitespace is trimmed, empty paragraphs are dropped, and input order
// is preserved. Pure function of its input.
func Split(text string) []model.Paragraph {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var paragraphs []model.Paragraph
	for _, block := range blankLine.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		paragraphs = append(paragraphs, model.Paragraph{
			Index: len(paragraphs),
			Text:  block,
		})
	}

	return paragraphs
}

// Join reassembles paragraphs with the canonical separator. Split and
// Join are inverses modulo blank-line normalization.
func Join(paragraphs []model.Paragraph) string {
	parts := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		parts[i] = p.Text
	}
	return strings.Join(parts, "\n\n")
}
