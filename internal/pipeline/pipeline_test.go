package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ivlev/companyfacts/internal/llm"
	"github.com/ivlev/companyfacts/internal/model"
)

// mockProvider returns canned responses keyed by paragraph content.
type mockProvider struct {
	mu        sync.Mutex
	responses map[string]string
	calls     int
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) IsAvailable(ctx context.Context) bool { return true }

func (m *mockProvider) ExtractCompany(ctx context.Context, req llm.ExtractRequest) (*llm.ExtractResponse, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	for key, resp := range m.responses {
		if strings.Contains(req.Paragraph, key) {
			if resp == "FAIL" {
				return nil, fmt.Errorf("simulated backend failure")
			}
			return &llm.ExtractResponse{Content: resp, Model: "mock-model"}, nil
		}
	}
	return &llm.ExtractResponse{Content: `{"company_name": "", "founding_date": "", "founders": []}`, Model: "mock-model"}, nil
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testConfig(t *testing.T) *model.Config {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Workers.Extraction = 2
	cfg.Workers.RequestsPerSecond = 1000
	cfg.Workers.Burst = 1000
	cfg.Output.CSVPath = filepath.Join(t.TempDir(), "company_info.csv")
	return cfg
}

func TestPipeline_Run_EndToEnd(t *testing.T) {
	provider := &mockProvider{
		responses: map[string]string{
			"Acme":  `{"company_name": "Acme  Corp", "founding_date": "March 1998", "founders": ["Jane Doe", "John Smith"]}`,
			"storm": `{"company_name": "", "founding_date": "", "founders": []}`,
		},
	}

	cfg := testConfig(t)
	p := NewWithProvider(cfg, provider)

	text := "Acme was founded in March 1998 by Jane Doe and John Smith.\n\nThe storm lasted three days."
	records, err := p.Run(context.Background(), text)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.CompanyName != "Acme Corp" {
		t.Errorf("Expected normalized name 'Acme Corp', got %q", rec.CompanyName)
	}
	if rec.FoundingDate != "1998-03" {
		t.Errorf("Expected founding date '1998-03', got %q", rec.FoundingDate)
	}
	if len(rec.Founders) != 2 || rec.Founders[0] != "Jane Doe" || rec.Founders[1] != "John Smith" {
		t.Errorf("Unexpected founders: %v", rec.Founders)
	}

	if provider.callCount() != 2 {
		t.Errorf("Expected 2 provider calls, got %d", provider.callCount())
	}

	data, err := os.ReadFile(p.CSVPath())
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	csv := string(data)
	if !strings.Contains(csv, "S.N.,Company Name,Founded in,Founded by") {
		t.Errorf("CSV missing header: %s", csv)
	}
	if !strings.Contains(csv, "Acme Corp") {
		t.Errorf("CSV missing record: %s", csv)
	}
}

func TestPipeline_Run_MergesAcrossParagraphs(t *testing.T) {
	provider := &mockProvider{
		responses: map[string]string{
			"first":  `{"company_name": "Acme Corp", "founding_date": "1998", "founders": ["Jane Doe"]}`,
			"second": `{"company_name": "acme corp", "founding_date": "2001", "founders": ["John Smith"]}`,
		},
	}

	cfg := testConfig(t)
	p := NewWithProvider(cfg, provider)

	records, err := p.Run(context.Background(), "The first mention.\n\nThe second mention.")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("Expected merged record, got %d records", len(records))
	}
	rec := records[0]
	if rec.CompanyName != "Acme Corp" {
		t.Errorf("Expected first-seen name 'Acme Corp', got %q", rec.CompanyName)
	}
	if rec.FoundingDate != "1998" {
		t.Errorf("Expected first-seen date '1998', got %q", rec.FoundingDate)
	}
	if len(rec.Founders) != 2 {
		t.Errorf("Expected union of founders, got %v", rec.Founders)
	}
}

func TestPipeline_Run_ParagraphFailureDoesNotAbort(t *testing.T) {
	provider := &mockProvider{
		responses: map[string]string{
			"Acme":   `{"company_name": "Acme Corp", "founding_date": "1998", "founders": []}`,
			"broken": "FAIL",
		},
	}

	cfg := testConfig(t)
	p := NewWithProvider(cfg, provider)

	records, err := p.Run(context.Background(), "Acme paragraph.\n\nA broken paragraph.")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(records) != 1 || records[0].CompanyName != "Acme Corp" {
		t.Errorf("Expected surviving Acme record, got %v", records)
	}
}

func TestPipeline_Run_EmptyInput(t *testing.T) {
	cfg := testConfig(t)
	p := NewWithProvider(cfg, &mockProvider{})

	_, err := p.Run(context.Background(), "   \n\n  ")
	if err != model.ErrInvalidInput {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}

	if _, statErr := os.Stat(p.CSVPath()); !os.IsNotExist(statErr) {
		t.Error("CSV should not be written for invalid input")
	}
}

func TestPipeline_Run_NoCompaniesWritesHeaderOnly(t *testing.T) {
	cfg := testConfig(t)
	p := NewWithProvider(cfg, &mockProvider{})

	records, err := p.Run(context.Background(), "A paragraph about the weather.")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("Expected no records, got %d", len(records))
	}

	data, err := os.ReadFile(p.CSVPath())
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if strings.TrimSpace(string(data)) != "S.N.,Company Name,Founded in,Founded by" {
		t.Errorf("Expected header-only CSV, got %q", string(data))
	}
}

func TestPipeline_Run_LongDocument(t *testing.T) {
	// Many more paragraphs than workers; the run must complete rather
	// than stall once the pool's channel buffers fill.
	provider := &mockProvider{
		responses: map[string]string{
			"Acme": `{"company_name": "Acme Corp", "founding_date": "1998", "founders": []}`,
		},
	}

	cfg := testConfig(t)
	cfg.Workers.Extraction = 2
	p := NewWithProvider(cfg, provider)

	var sb strings.Builder
	sb.WriteString("Acme paragraph zero.")
	for i := 1; i < 25; i++ {
		fmt.Fprintf(&sb, "\n\nFiller paragraph number %d about nothing in particular.", i)
	}

	type outcome struct {
		records []model.CompanyRecord
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		records, err := p.Run(context.Background(), sb.String())
		done <- outcome{records, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			t.Fatalf("Run failed: %v", out.err)
		}
		if len(out.records) != 1 || out.records[0].CompanyName != "Acme Corp" {
			t.Errorf("Unexpected records: %v", out.records)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not finish on a 25-paragraph document")
	}

	if provider.callCount() != 25 {
		t.Errorf("Expected 25 provider calls, got %d", provider.callCount())
	}
}

// cancellingProvider cancels the request context mid-call, like a
// client that disconnected.
type cancellingProvider struct {
	cancel context.CancelFunc
}

func (p *cancellingProvider) Name() string { return "mock" }

func (p *cancellingProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *cancellingProvider) ExtractCompany(ctx context.Context, req llm.ExtractRequest) (*llm.ExtractResponse, error) {
	p.cancel()
	return nil, ctx.Err()
}

func TestPipeline_Run_CanceledRequestLeavesCSVAlone(t *testing.T) {
	cfg := testConfig(t)

	// A successful run first, so there is a CSV to protect
	good := NewWithProvider(cfg, &mockProvider{
		responses: map[string]string{
			"Acme": `{"company_name": "Acme Corp", "founding_date": "1998", "founders": []}`,
		},
	})
	if _, err := good.Run(context.Background(), "Acme paragraph."); err != nil {
		t.Fatalf("Setup run failed: %v", err)
	}
	before, err := os.ReadFile(cfg.Output.CSVPath)
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewWithProvider(cfg, &cancellingProvider{cancel: cancel})

	records, err := p.Run(ctx, "Acme paragraph.")
	if err == nil {
		t.Fatalf("Expected a canceled run to fail, got records %v", records)
	}

	after, err := os.ReadFile(cfg.Output.CSVPath)
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if string(after) != string(before) {
		t.Errorf("Canceled run rewrote the CSV:\nbefore: %q\nafter:  %q", before, after)
	}
}

func TestPipeline_Run_PreservesFirstEncounterOrder(t *testing.T) {
	provider := &mockProvider{
		responses: map[string]string{
			"Zeta":  `{"company_name": "Zeta Labs", "founding_date": "2010", "founders": []}`,
			"Alpha": `{"company_name": "Alpha Inc", "founding_date": "2005", "founders": []}`,
		},
	}

	cfg := testConfig(t)
	cfg.Workers.Extraction = 4
	p := NewWithProvider(cfg, provider)

	records, err := p.Run(context.Background(), "Zeta paragraph.\n\nAlpha paragraph.")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].CompanyName != "Zeta Labs" || records[1].CompanyName != "Alpha Inc" {
		t.Errorf("Expected document order Zeta Labs, Alpha Inc; got %q, %q",
			records[0].CompanyName, records[1].CompanyName)
	}
	if records[0].Seq != 1 || records[1].Seq != 2 {
		t.Errorf("Expected sequence numbers 1, 2; got %d, %d", records[0].Seq, records[1].Seq)
	}
}
