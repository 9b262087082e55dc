package llm

import (
	"context"
	"errors"
	"time"

	"github.com/ppiankov/watchdog/internal/model"
)

// ErrProviderUnavailable is returned when a provider cannot be constructed or reached
var ErrProviderUnavailable = errors.New("llm provider unavailable")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate forwards a prompt and returns the raw answer
	Generate(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Request is one prompt forwarded upstream
type Request struct {
	Prompt string
	Domain model.Domain

	// Model overrides the provider's configured model
	Model string

	MaxTokens   int
	Temperature float32
}

// Response is the raw upstream answer
type Response struct {
	Text       string
	Provider   string
	Model      string
	TokensUsed int

	// Cached is set when the answer came from the answer cache
	Cached bool

	// Fallback is set when the answer is a canned mock reply after upstream failure
	Fallback bool
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openrouter", "openai", "gemini", "ollama", "mock"
	Provider string

	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration

	MaxTokens   int
	Temperature float32

	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "mock",
		Timeout:     30 * time.Second,
		MaxTokens:   500,
		Temperature: 0.7,
	}
}

var systemPrompts = map[model.Domain]string{
	model.DomainHealth:  "You are a helpful assistant answering health-related questions. Always remind users to consult healthcare professionals.",
	model.DomainFinance: "You are a helpful assistant answering finance-related questions. Always include appropriate risk disclaimers.",
	model.DomainGeneral: "You are a helpful assistant providing accurate and reliable information.",
}

// SystemPrompt returns the system message for a domain, general when unknown
func SystemPrompt(domain model.Domain) string {
	if p, ok := systemPrompts[domain]; ok {
		return p
	}
	return systemPrompts[model.DomainGeneral]
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}

func (c Config) maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 500
}

func (c Config) temperature(req Request) float32 {
	if req.Temperature > 0 {
		return req.Temperature
	}
	if c.Temperature > 0 {
		return c.Temperature
	}
	return 0.7
}

func (c Config) model(req Request, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}
