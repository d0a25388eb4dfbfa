package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ivlev/companyfacts/internal/model"
)

// Normalize standardizes the date, founders, and company name of one
// result. Best-effort and total: it always returns a value, and
// Normalize(Normalize(x)) == Normalize(x). A nil input stays nil.
func Normalize(r *model.ExtractionResult) *model.ExtractionResult {
	if r == nil {
		return nil
	}

	out := &model.ExtractionResult{
		ParagraphIndex: r.ParagraphIndex,
		CompanyName:    CollapseSpaces(r.CompanyName),
	}
	out.FoundingDate, out.DateRaw = NormalizeDate(r.FoundingDate)
	out.Founders = normalizeFounders(r.Founders)
	return out
}

// CollapseSpaces trims a string and collapses internal whitespace runs
// to single spaces. Case is preserved.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var months = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

var (
	isoFullRe      = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`)
	mdyNumericRe   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	monthDayYearRe = regexp.MustCompile(`^([A-Za-z]+)\.?\s+(\d{1,2}),?\s+(\d{4})$`)
	dayMonthYearRe = regexp.MustCompile(`^(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?([A-Za-z]+),?\s+(\d{4})$`)
	isoYearMonthRe = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})$`)
	monthYearRe    = regexp.MustCompile(`^([A-Za-z]+)\.?,?\s+(\d{4})$`)
	yearMonthRe    = regexp.MustCompile(`^(\d{4})\s+([A-Za-z]+)$`)
	yearOnlyRe     = regexp.MustCompile(`^\d{4}$`)
	yearAnywhere   = regexp.MustCompile(`(19|20)\d{2}`)
)

// NormalizeDate parses a free-form date string into the most specific
// of YYYY-MM-DD, YYYY-MM, or YYYY that the input supports. Missing
// components are never zero-filled. Unparseable strings pass through
// unchanged with raw=true; empty input stays empty with raw=false.
func NormalizeDate(s string) (normalized string, raw bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	if m := isoFullRe.FindStringSubmatch(s); m != nil {
		if d, ok := fullDate(m[1], m[2], m[3]); ok {
			return d, false
		}
	}
	if m := mdyNumericRe.FindStringSubmatch(s); m != nil {
		// US-style M/D/YYYY
		if d, ok := fullDate(m[3], m[1], m[2]); ok {
			return d, false
		}
	}
	if m := monthDayYearRe.FindStringSubmatch(s); m != nil {
		if mo, ok := months[strings.ToLower(m[1])]; ok {
			if d, ok := fullDate(m[3], strconv.Itoa(mo), m[2]); ok {
				return d, false
			}
		}
	}
	if m := dayMonthYearRe.FindStringSubmatch(s); m != nil {
		if mo, ok := months[strings.ToLower(m[2])]; ok {
			if d, ok := fullDate(m[3], strconv.Itoa(mo), m[1]); ok {
				return d, false
			}
		}
	}
	if m := isoYearMonthRe.FindStringSubmatch(s); m != nil {
		if d, ok := yearMonth(m[1], m[2]); ok {
			return d, false
		}
	}
	if m := monthYearRe.FindStringSubmatch(s); m != nil {
		if mo, ok := months[strings.ToLower(m[1])]; ok {
			if d, ok := yearMonth(m[2], strconv.Itoa(mo)); ok {
				return d, false
			}
		}
	}
	if m := yearMonthRe.FindStringSubmatch(s); m != nil {
		if mo, ok := months[strings.ToLower(m[2])]; ok {
			if d, ok := yearMonth(m[1], strconv.Itoa(mo)); ok {
				return d, false
			}
		}
	}
	if yearOnlyRe.MatchString(s) {
		return s, false
	}

	// Last resort: a plausible year buried in prose ("in the fall of 1998")
	if y := yearAnywhere.FindString(s); y != "" {
		return y, false
	}

	return s, true
}

func fullDate(y, m, d string) (string, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	if year == 0 || month < 1 || month > 12 || day < 1 {
		return "", false
	}
	// time.Date normalizes overflow (Feb 31 becomes Mar 3); a shifted
	// day means the input named a day that month does not have.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func yearMonth(y, m string) (string, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	if year == 0 || month < 1 || month > 12 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d", year, month), true
}

// founderDelims splits a flat founder string on the separators models
// actually emit: commas, semicolons, and the word "and".
var founderDelims = regexp.MustCompile(`\s*(?:,|;|\band\b|&)\s*`)

// normalizeFounders returns trimmed founder names with empties dropped.
// A single string containing delimiters is split into individual names;
// an already-split list is only cleaned.
func normalizeFounders(founders model.StringList) model.StringList {
	var names []string
	if len(founders) == 1 && founderDelims.MatchString(founders[0]) {
		names = founderDelims.Split(founders[0], -1)
	} else {
		names = founders
	}

	var out model.StringList
	for _, name := range names {
		name = CollapseSpaces(name)
		if name == "" {
			continue
		}
		out = append(out, name)
	}
	return out
}
