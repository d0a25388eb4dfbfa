package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ivlev/companyfacts/internal/model"
	"github.com/ivlev/companyfacts/internal/pipeline"
	"github.com/ivlev/companyfacts/internal/server"
)

var (
	servePort     string
	serveProvider string
	serveModel    string
	serveCSV      string
	serveWorkers  int
	serveRPS      float64
	serveTimeout  int
	serveNoCache  bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the extraction HTTP service",
	Long: `Serve exposes the extraction pipeline over HTTP:

  POST /extract   multipart form with 'file' or 'essay_text'
  GET  /download  the CSV written by the last extraction
  GET  /healthz   liveness probe

Example:
  companyfacts serve --port 8080 --provider openai --model gpt-4o-mini`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "8080", "HTTP listen port")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "openai", "LLM provider (openai, anthropic, gemini, ollama)")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "LLM model name (provider default if empty)")
	serveCmd.Flags().StringVar(&serveCSV, "csv", "company_info.csv", "output CSV path")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 4, "concurrent extraction calls")
	serveCmd.Flags().Float64Var(&serveRPS, "rps", 2, "model calls per second")
	serveCmd.Flags().IntVar(&serveTimeout, "timeout", 30, "per-paragraph model call timeout, seconds")
	serveCmd.Flags().BoolVar(&serveNoCache, "no-cache", false, "disable the extraction cache")
}

func runServe(cmd *cobra.Command, args []string) error {
	// API keys commonly live in a local .env during development
	_ = godotenv.Load()

	cfg := model.DefaultConfig()
	cfg.Server.Port = servePort
	cfg.LLM.Provider = serveProvider
	cfg.LLM.Model = serveModel
	cfg.LLM.Timeout = serveTimeout
	cfg.Output.CSVPath = serveCSV
	cfg.Output.Verbose = verbose
	cfg.Workers.Extraction = serveWorkers
	cfg.Workers.RequestsPerSecond = serveRPS
	cfg.Cache.Enabled = !serveNoCache

	if err := resolveAPIKey(cfg); err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	return server.New(cfg, p).Run()
}

// resolveAPIKey fills cfg.LLM from the environment for the configured
// provider.
func resolveAPIKey(cfg *model.Config) error {
	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "gemini", "google":
		// GOOGLE_API_KEY is accepted as a fallback
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("GOOGLE_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
	return nil
}
