package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Paragraph is one blank-line-delimited unit of input text, the atomic
// unit of extraction. Paragraphs are created once during ingestion and
// never mutated.
type Paragraph struct {
	Index int    `json:"index"` // position in the source document (0-based)
	Text  string `json:"text"`
}

// StringList is a founder list that tolerates both JSON shapes models
// produce: an array of strings or a single string. A single string is
// kept as a one-element list; the normalizer decides whether it needs
// splitting.
type StringList []string

// UnmarshalJSON accepts ["a", "b"], "a", or null.
func (s *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if strings.TrimSpace(single) == "" {
			*s = nil
		} else {
			*s = StringList{single}
		}
		return nil
	}

	return fmt.Errorf("founders must be a string or an array of strings, got %s", string(data))
}

// ExtractionResult is the raw, per-paragraph, possibly-absent structured
// guess at company facts. A nil *ExtractionResult means the paragraph
// mentioned no company at all; empty fields on a non-nil result mean
// "not found in this paragraph".
type ExtractionResult struct {
	ParagraphIndex int        `json:"paragraph_index"`
	CompanyName    string     `json:"company_name"`
	FoundingDate   string     `json:"founding_date"`
	Founders       StringList `json:"founders"`

	// DateRaw marks a founding date that resisted normalization and
	// passed through unchanged.
	DateRaw bool `json:"-"`
}

// CompanyRecord is the normalized, deduplicated, output-ready company
// entry. One record may absorb several ExtractionResults referring to
// the same company across paragraphs. Immutable once emitted.
type CompanyRecord struct {
	Seq          int      `json:"-"` // 1-based, assigned at output time
	CompanyName  string   `json:"company_name"`
	FoundingDate string   `json:"founding_date"`
	Founders     []string `json:"founders"`
}
