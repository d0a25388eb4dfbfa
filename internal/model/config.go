package model

import "time"

// Config is the complete runtime configuration.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Cache   CacheConfig   `yaml:"cache"`
	Workers WorkersConfig `yaml:"workers"`
	Output  OutputConfig  `yaml:"output"`
	Server  ServerConfig  `yaml:"server"`
}

// LLMConfig configures the extraction model backend.
type LLMConfig struct {
	// Provider name: "openai", "anthropic", "gemini", "ollama"
	Provider string `yaml:"provider"`

	// Model name (provider-specific)
	Model string `yaml:"model"`

	// APIKey for hosted providers (usually supplied via environment)
	APIKey string `yaml:"-"`

	// BaseURL for custom endpoints (e.g., Ollama, proxies)
	BaseURL string `yaml:"base_url"`

	// Timeout per model call, seconds
	Timeout int `yaml:"timeout"`

	// MaxTokens for response generation
	MaxTokens int `yaml:"max_tokens"`

	// Retries on a malformed response, per paragraph
	Retries int `yaml:"retries"`
}

// CacheConfig configures the paragraph-extraction cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// WorkersConfig bounds concurrent extraction calls.
type WorkersConfig struct {
	// Extraction is the number of concurrent per-paragraph model calls.
	Extraction int `yaml:"extraction"`

	// RequestsPerSecond throttles calls to the provider.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// OutputConfig controls where results land.
type OutputConfig struct {
	// CSVPath is the fixed output file, overwritten on each run.
	CSVPath string `yaml:"csv_path"`
	Verbose bool   `yaml:"verbose"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Port           string `yaml:"port"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "", // provider picks its default
			Timeout:   30,
			MaxTokens: 500,
			Retries:   1,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".companyfacts-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Workers: WorkersConfig{
			Extraction:        4,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Output: OutputConfig{
			CSVPath: "company_info.csv",
		},
		Server: ServerConfig{
			Port:           "8080",
			MaxUploadBytes: 16 << 20, // 16MB, matches typical form-upload limits
		},
	}
}
