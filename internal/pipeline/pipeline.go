// Package pipeline orchestrates one extraction run: split the input
// into paragraphs, query the model per paragraph on a bounded worker
// pool, then normalize, aggregate, and persist the results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/ivlev/companyfacts/internal/cache"
	"github.com/ivlev/companyfacts/internal/extract"
	"github.com/ivlev/companyfacts/internal/ingest"
	"github.com/ivlev/companyfacts/internal/llm"
	"github.com/ivlev/companyfacts/internal/model"
	"github.com/ivlev/companyfacts/internal/report"
	"github.com/ivlev/companyfacts/internal/worker"
)

// Pipeline wires ingestion, extraction, and output for one deployment.
// A single Pipeline serves concurrent requests; the CSV sink enforces
// the single-writer discipline on the shared output file.
type Pipeline struct {
	extractor    *extract.Extractor
	providerName string
	limiter      *worker.Limiter
	sink         *report.Sink
	cfg          *model.Config
}

// New builds a pipeline from configuration, constructing the provider
// via the factory.
func New(cfg *model.Config) (*Pipeline, error) {
	provider, err := llm.NewProvider(llm.Config{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.Model,
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Timeout:   cfg.LLM.Timeout,
		MaxTokens: cfg.LLM.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("no LLM provider configured")
	}
	return NewWithProvider(cfg, provider), nil
}

// NewWithProvider builds a pipeline around an existing provider. Tests
// use it to substitute a mock backend.
func NewWithProvider(cfg *model.Config, provider llm.Provider) *Pipeline {
	var c cache.Cache
	if cfg.Cache.Enabled {
		c = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	return &Pipeline{
		extractor:    extract.NewExtractor(provider, cfg.LLM, c),
		providerName: provider.Name(),
		limiter:      worker.NewLimiter(cfg.Workers.RequestsPerSecond, cfg.Workers.Burst),
		sink:         report.NewSink(cfg.Output.CSVPath),
		cfg:          cfg,
	}
}

// CSVPath returns the path of the output CSV file.
func (p *Pipeline) CSVPath() string {
	return p.sink.Path()
}

// Run executes the full pipeline over raw text and returns the
// aggregated records. The CSV file is only replaced after aggregation
// completes; a failed run leaves it untouched.
func (p *Pipeline) Run(ctx context.Context, text string) ([]model.CompanyRecord, error) {
	paragraphs := ingest.Split(text)
	if len(paragraphs) == 0 {
		return nil, model.ErrInvalidInput
	}

	results, err := p.extractAll(ctx, paragraphs)
	if err != nil {
		return nil, err
	}

	for i, r := range results {
		results[i] = extract.Normalize(r)
	}

	records := extract.Aggregate(results)

	if err := p.sink.Write(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}

	return records, nil
}

// extractAll fans paragraphs out to the worker pool and reassembles
// results in paragraph-index order, so aggregation sees document
// order regardless of completion order. Paragraphs whose extraction
// failed contribute a nil slot.
func (p *Pipeline) extractAll(ctx context.Context, paragraphs []model.Paragraph) ([]*model.ExtractionResult, error) {
	workers := p.cfg.Workers.Extraction
	if workers > len(paragraphs) {
		workers = len(paragraphs)
	}

	pool := worker.NewPool(workers)
	pool.Start()
	defer pool.Shutdown()

	timeout := time.Duration(p.cfg.LLM.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	for _, para := range paragraphs {
		pool.Submit(&extractJob{
			paragraph: para,
			extractor: p.extractor,
			limiter:   p.limiter,
			provider:  p.providerName,
			timeout:   timeout,
			parent:    ctx,
		})
	}

	results := pool.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].Index() < results[j].Index() })

	ordered := make([]*model.ExtractionResult, len(paragraphs))
	for _, res := range results {
		er := res.(*extractResult)
		if er.err != nil {
			var parseErr *model.ParseError
			if errors.As(er.err, &parseErr) {
				// Local failure: log and keep going without this paragraph
				log.Printf("[pipeline] %v", parseErr)
				continue
			}
			if errors.Is(er.err, context.Canceled) {
				return nil, er.err
			}
			log.Printf("[pipeline] paragraph %d: %v", er.index, er.err)
			continue
		}
		ordered[er.index] = er.result
	}

	return ordered, nil
}

// extractJob is one paragraph's unit of work on the pool.
type extractJob struct {
	paragraph model.Paragraph
	extractor *extract.Extractor
	limiter   *worker.Limiter
	provider  string
	timeout   time.Duration
	parent    context.Context
}

func (j *extractJob) Index() int {
	return j.paragraph.Index
}

func (j *extractJob) Execute(poolCtx context.Context) worker.Result {
	ctx := j.parent
	if ctx == nil {
		ctx = poolCtx
	}

	if err := j.limiter.Wait(ctx, j.provider); err != nil {
		return &extractResult{index: j.paragraph.Index, err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	result, err := j.extractor.ExtractParagraph(callCtx, j.paragraph)
	return &extractResult{index: j.paragraph.Index, result: result, err: err}
}

// extractResult carries one paragraph's outcome back from the pool.
type extractResult struct {
	index  int
	result *model.ExtractionResult
	err    error
}

func (r *extractResult) Index() int {
	return r.index
}

func (r *extractResult) Err() error {
	return r.err
}
