// Package extract implements the per-paragraph extraction wrapper, the
// normalizer, and the aggregator. Only the extractor touches the model
// backend; normalize and aggregate are pure.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/ivlev/companyfacts/internal/cache"
	"github.com/ivlev/companyfacts/internal/llm"
	"github.com/ivlev/companyfacts/internal/model"
)

// Extractor runs the model call for one paragraph and decodes the
// reply into an ExtractionResult.
type Extractor struct {
	provider  llm.Provider
	model     string
	maxTokens int
	retries   int
	cache     cache.Cache   // nil disables caching
	cacheTTL  time.Duration // 0 uses the cache default
}

// NewExtractor creates an extractor over the given provider. retries is
// the number of additional attempts after a malformed response.
func NewExtractor(provider llm.Provider, cfg model.LLMConfig, c cache.Cache) *Extractor {
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	return &Extractor{
		provider:  provider,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		retries:   retries,
		cache:     c,
	}
}

// cachedResult is the cache entry shape. Found distinguishes "cached:
// no company here" from a cache miss.
type cachedResult struct {
	Found  bool                   `json:"found"`
	Result model.ExtractionResult `json:"result,omitempty"`
}

// ExtractParagraph asks the model about one paragraph. A nil result
// with nil error means the paragraph mentions no company. A
// *model.ParseError means this paragraph's reply was unusable; the
// caller logs it and moves on.
func (e *Extractor) ExtractParagraph(ctx context.Context, p model.Paragraph) (*model.ExtractionResult, error) {
	key := cache.Key(e.provider.Name(), e.model, p.Text)

	if e.cache != nil {
		if data, found := e.cache.Get(key); found {
			var entry cachedResult
			if err := json.Unmarshal(data, &entry); err == nil {
				if !entry.Found {
					return nil, nil
				}
				result := entry.Result
				result.ParagraphIndex = p.Index
				return &result, nil
			}
		}
	}

	var lastErr error
	for attempt := 0; attempt <= e.retries; attempt++ {
		resp, err := e.provider.ExtractCompany(ctx, llm.ExtractRequest{
			Paragraph: p.Text,
			Model:     e.model,
			MaxTokens: e.maxTokens,
		})
		if err != nil {
			// A canceled parent context means the whole request is
			// being torn down; that must surface unwrapped so the
			// caller aborts instead of skipping the paragraph.
			if ctx.Err() == context.Canceled {
				return nil, ctx.Err()
			}
			// Transport and timeout failures are local to the
			// paragraph, same as malformed output. Retrying the call
			// is the provider client's business, not ours.
			return nil, model.NewParseError(p.Index, "", err)
		}

		result, err := decodeResult(resp.Content, p.Index)
		if err == nil {
			e.store(key, result)
			return result, nil
		}
		lastErr = err
	}

	return nil, model.NewParseError(p.Index, "", lastErr)
}

func (e *Extractor) store(key string, result *model.ExtractionResult) {
	if e.cache == nil {
		return
	}
	entry := cachedResult{Found: result != nil}
	if result != nil {
		entry.Result = *result
	}
	if data, err := json.Marshal(entry); err == nil {
		_ = e.cache.Set(key, data, e.cacheTTL)
	}
}

// wireResult mirrors the JSON object the prompt demands. Companies
// tolerates models that volunteer a wrapped list instead; the first
// entry wins.
type wireResult struct {
	CompanyName  string           `json:"company_name"`
	FoundingDate string           `json:"founding_date"`
	Founders     model.StringList `json:"founders"`
	Companies    []wireCompany    `json:"companies"`
}

type wireCompany struct {
	CompanyName  string           `json:"company_name"`
	FoundingDate string           `json:"founding_date"`
	Founders     model.StringList `json:"founders"`
}

// decodeResult parses model output into an ExtractionResult. Output
// that is not valid JSON gets one repair pass before failing. A nil
// result means the model reported no company.
func decodeResult(content string, paragraphIndex int) (*model.ExtractionResult, error) {
	content = stripCodeFence(content)
	if content == "" {
		return nil, model.NewParseError(paragraphIndex, content, fmt.Errorf("empty response"))
	}

	var wire wireResult
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(content)
		if repairErr != nil {
			return nil, model.NewParseError(paragraphIndex, content,
				fmt.Errorf("unmarshal: %v, repair: %v", err, repairErr))
		}
		if err := json.Unmarshal([]byte(repaired), &wire); err != nil {
			return nil, model.NewParseError(paragraphIndex, content, fmt.Errorf("unmarshal repaired: %w", err))
		}
	}

	if wire.CompanyName == "" && len(wire.Companies) > 0 {
		first := wire.Companies[0]
		wire.CompanyName = first.CompanyName
		wire.FoundingDate = first.FoundingDate
		wire.Founders = first.Founders
	}

	if strings.TrimSpace(wire.CompanyName) == "" {
		return nil, nil // no company mentioned
	}

	return &model.ExtractionResult{
		ParagraphIndex: paragraphIndex,
		CompanyName:    wire.CompanyName,
		FoundingDate:   wire.FoundingDate,
		Founders:       wire.Founders,
	}, nil
}

// stripCodeFence removes a surrounding markdown code fence, which
// models add even when told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
