// Package llm abstracts the language-model backends used for
// per-paragraph company extraction. Everything downstream of the
// Provider interface is deterministic and testable without a model.
package llm

import (
	"context"
	"fmt"
)

// Provider defines the interface for LLM extraction backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// ExtractCompany asks the model for company facts in one paragraph.
	// The response content is expected to be strict JSON; decoding and
	// repair happen in the extract package, not here.
	ExtractCompany(ctx context.Context, req ExtractRequest) (*ExtractResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ExtractRequest contains the input for one extraction call
type ExtractRequest struct {
	// Paragraph is the text the model may draw facts from
	Paragraph string

	// Prompt is an optional custom user prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ExtractResponse contains the model's raw reply
type ExtractResponse struct {
	// Content is the model output, expected to be a JSON object
	Content string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "gemini", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, API proxies)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "",
		Model:     "",
		Timeout:   30,
		MaxTokens: 500,
	}
}

// systemPrompt is the fixed instruction for every extraction call. The
// model must answer with a single JSON object and nothing else; an
// empty company_name signals that the paragraph mentions no company.
const systemPrompt = `You are an information extraction assistant. Extract company formation details ONLY from the provided paragraph. Output STRICT JSON with the following shape:
{
  "company_name": "string, empty if no company is mentioned",
  "founding_date": "string (YYYY-MM-DD if fully known, else YYYY or YYYY-MM, else empty)",
  "founders": ["string", ...]
}

- Company name: preserve official punctuation (Inc., LLC, Ltd., etc.).
- Founding date: return only the parts the paragraph states. Never invent a month or day.
- Founders: list of personal names. If unclear, use an empty list.
- If the paragraph mentions no company, return {"company_name": "", "founding_date": "", "founders": []}.
Do not include commentary. JSON only.`

// SystemPrompt exposes the fixed instruction for providers that take a
// separate system role.
func SystemPrompt() string {
	return systemPrompt
}

// BuildPrompt constructs the default user prompt for one paragraph.
func BuildPrompt(paragraph string) string {
	return fmt.Sprintf("Paragraph:\n%s\n\nReturn JSON only.", paragraph)
}
