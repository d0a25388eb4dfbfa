package model

import (
	"errors"
	"fmt"
)

// Request-level failures. These abort the whole request and map to a
// 4xx response at the HTTP boundary.
var (
	// ErrInvalidInput means neither pasted text nor an uploaded file
	// carried any content.
	ErrInvalidInput = errors.New("no input content provided")

	// ErrUnsupportedDocument means an uploaded file could not be
	// converted to plain text.
	ErrUnsupportedDocument = errors.New("unsupported or unreadable document")
)

// ParseError reports that one paragraph's model response could not be
// decoded into the expected shape. It is local to the paragraph: the
// batch continues and the paragraph contributes no record.
type ParseError struct {
	ParagraphIndex int
	Payload        string // offending model output, truncated
	Err            error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("paragraph %d: cannot parse model response: %v", e.ParagraphIndex, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError builds a ParseError, keeping at most 200 bytes of the
// offending payload for logs.
func NewParseError(index int, payload string, err error) *ParseError {
	if len(payload) > 200 {
		payload = payload[:200] + "..."
	}
	return &ParseError{ParagraphIndex: index, Payload: payload, Err: err}
}
