package extract

import (
	"strings"

	"github.com/ivlev/companyfacts/internal/model"
)

// Aggregate merges normalized per-paragraph results into one
// CompanyRecord per distinct company. Results must arrive in paragraph
// order: when results for the same company disagree, the earlier
// paragraph's founding date wins. Nil results are dropped. Output order
// is the order in which each company was first encountered, and
// sequence numbers are 1-based.
func Aggregate(results []*model.ExtractionResult) []model.CompanyRecord {
	byKey := make(map[string]*model.CompanyRecord)
	var order []string

	for _, r := range results {
		if r == nil {
			continue
		}
		name := CollapseSpaces(r.CompanyName)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)

		rec, exists := byKey[key]
		if !exists {
			rec = &model.CompanyRecord{
				CompanyName:  name,
				FoundingDate: strings.TrimSpace(r.FoundingDate),
				Founders:     []string{},
			}
			byKey[key] = rec
			order = append(order, key)
		} else if rec.FoundingDate == "" {
			rec.FoundingDate = strings.TrimSpace(r.FoundingDate)
		}

		mergeFounders(rec, r.Founders)
	}

	records := make([]model.CompanyRecord, 0, len(order))
	for i, key := range order {
		rec := byKey[key]
		rec.Seq = i + 1
		records = append(records, *rec)
	}
	return records
}

// mergeFounders appends new founder names preserving first-seen order,
// deduplicating case-insensitively.
func mergeFounders(rec *model.CompanyRecord, founders []string) {
	seen := make(map[string]bool, len(rec.Founders))
	for _, f := range rec.Founders {
		seen[strings.ToLower(f)] = true
	}
	for _, f := range founders {
		f = CollapseSpaces(f)
		if f == "" || seen[strings.ToLower(f)] {
			continue
		}
		seen[strings.ToLower(f)] = true
		rec.Founders = append(rec.Founders, f)
	}
}
