// Package report serializes aggregated company records to CSV.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ivlev/companyfacts/internal/model"
)

// Header is the fixed CSV column order.
var Header = []string{"S.N.", "Company Name", "Founded in", "Founded by"}

// FormatFounders renders a founder list in the bracket-and-quote form
// the presentation layer parses back: ['Jane Doe', 'John Smith']. The
// form is used even for a single founder so consumers only handle one
// shape; an empty list renders as [].
func FormatFounders(names []string) string {
	if len(names) == 0 {
		return "[]"
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Render serializes records into CSV text with standard quoting.
// Deterministic given input order.
func Render(records []model.CompanyRecord) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Header); err != nil {
		return "", err
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Seq),
			r.CompanyName,
			r.FoundingDate,
			FormatFounders(r.Founders),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Sink writes the output CSV to a fixed path. The path is process-wide
// state overwritten per run, so writes are serialized behind a mutex
// and land atomically: the file either holds the previous run or the
// complete new one, never a partial write.
type Sink struct {
	mu   sync.Mutex
	path string
}

// NewSink creates a sink for the given output path.
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// Path returns the sink's output path.
func (s *Sink) Path() string {
	return s.path
}

// Write renders records and replaces the output file. A header-only
// file is written when records is empty.
func (s *Sink) Write(records []model.CompanyRecord) error {
	text, err := Render(records)
	if err != nil {
		return fmt.Errorf("render csv: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// Temp file in the same directory so the rename is atomic
	tmp, err := os.CreateTemp(dir, ".company_info-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
