package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ivlev/companyfacts/internal/ingest"
	"github.com/ivlev/companyfacts/internal/model"
	"github.com/ivlev/companyfacts/internal/pipeline"
)

var (
	extractProvider string
	extractModel    string
	extractCSV      string
	extractJSON     bool
	extractWorkers  int
	extractRPS      float64
	extractTimeout  time.Duration
	extractNoCache  bool
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <file|->",
	Short: "Extract company facts from a local document",
	Long: `Extract runs the pipeline against a local file (.txt, .md, .pdf,
.html) or standard input, writes the CSV, and prints the results.

Example:
  companyfacts extract essay.txt
  cat essay.txt | companyfacts extract - --json
  companyfacts extract history.pdf --provider anthropic`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractProvider, "provider", "openai", "LLM provider (openai, anthropic, gemini, ollama)")
	extractCmd.Flags().StringVar(&extractModel, "model", "", "LLM model name (provider default if empty)")
	extractCmd.Flags().StringVar(&extractCSV, "csv", "company_info.csv", "output CSV path")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print records as JSON instead of a summary")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 4, "concurrent extraction calls")
	extractCmd.Flags().Float64Var(&extractRPS, "rps", 2, "model calls per second")
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 30*time.Second, "per-paragraph model call timeout")
	extractCmd.Flags().BoolVar(&extractNoCache, "no-cache", false, "disable the extraction cache")
}

func runExtract(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	text, err := readInput(args[0])
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return model.ErrInvalidInput
	}

	cfg := model.DefaultConfig()
	cfg.LLM.Provider = extractProvider
	cfg.LLM.Model = extractModel
	cfg.LLM.Timeout = int(extractTimeout.Seconds())
	cfg.Output.CSVPath = extractCSV
	cfg.Output.Verbose = verbose
	cfg.Workers.Extraction = extractWorkers
	cfg.Workers.RequestsPerSecond = extractRPS
	cfg.Cache.Enabled = !extractNoCache

	if err := resolveAPIKey(cfg); err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Provider: %s\n", cfg.LLM.Provider)
		fmt.Fprintf(os.Stderr, "Output:   %s\n", cfg.Output.CSVPath)
	}

	records, err := p.Run(context.Background(), text)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if extractJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No company information found.")
		return nil
	}
	for _, r := range records {
		fmt.Printf("%d. %s", r.Seq, r.CompanyName)
		if r.FoundingDate != "" {
			fmt.Printf(" (founded %s)", r.FoundingDate)
		}
		if len(r.Founders) > 0 {
			fmt.Printf(" by %s", strings.Join(r.Founders, ", "))
		}
		fmt.Println()
	}
	fmt.Printf("\nWrote %s\n", cfg.Output.CSVPath)
	return nil
}

// readInput loads the document argument: "-" for stdin, otherwise a
// file converted by extension.
func readInput(arg string) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", arg, err)
	}

	// Extensionless files are treated as plain text
	if filepath.Ext(arg) == "" {
		return string(data), nil
	}
	return ingest.ReadDocument(arg, data)
}
