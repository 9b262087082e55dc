package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/watchdog/internal/cache"
	"github.com/ppiankov/watchdog/internal/model"
	"github.com/ppiankov/watchdog/internal/worker"
	"go.uber.org/zap"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openrouter":
		return NewOpenRouterProvider(config)
	case "openai":
		return NewOpenAIProvider(config)
	case "gemini":
		return NewGeminiProvider(config)
	case "ollama":
		return NewOllamaProvider(config)
	case "mock", "":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openrouter, openai, gemini, ollama, mock)", config.Provider)
	}
}

var apiKeyEnv = map[string]string{
	"openrouter": "OPENROUTER_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"gemini":     "GEMINI_API_KEY",
}

// ConfigFromModel converts model.LLMConfig to llm.Config. A missing API key
// or Ollama URL is taken from the provider's conventional env variable.
func ConfigFromModel(m model.LLMConfig) Config {
	cfg := Config{
		Provider:    strings.ToLower(m.Provider),
		Model:       m.Model,
		APIKey:      m.APIKey,
		BaseURL:     m.BaseURL,
		Timeout:     m.Timeout,
		MaxTokens:   m.MaxTokens,
		Temperature: m.Temperature,
		HTTPProxy:   m.HTTPProxy,
		HTTPSProxy:  m.HTTPSProxy,
	}
	if m.Mock {
		cfg.Provider = "mock"
	}
	if cfg.APIKey == "" {
		if env, ok := apiKeyEnv[cfg.Provider]; ok {
			cfg.APIKey = os.Getenv(env)
		}
	}
	if cfg.Provider == "ollama" && cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	return cfg
}

// NewProxyFromConfig builds the proxy the gateway uses. A provider that cannot
// be constructed (for example, a missing API key) fails each call, which the
// fallback setting then handles like any other upstream failure.
func NewProxyFromConfig(m model.LLMConfig, c cache.Cache, cacheTTL time.Duration, limiter *worker.Limiter, log *zap.Logger) (*Proxy, error) {
	cfg := ConfigFromModel(m)

	provider, err := NewProvider(cfg)
	if err != nil {
		if !m.FallbackToMock {
			return nil, err
		}
		if log != nil {
			log.Warn("llm provider unavailable, mock fallback enabled",
				zap.String("provider", cfg.Provider), zap.Error(err))
		}
		provider = &unavailable{name: cfg.Provider, err: err}
	}

	opts := []ProxyOption{
		WithRetries(m.MaxRetries),
		WithFallback(m.FallbackToMock),
		WithLimiter(limiter),
		WithLogger(log),
	}
	if c != nil {
		opts = append(opts, WithCache(c, cacheTTL))
	}
	return NewProxy(provider, opts...), nil
}

// unavailable stands in for a provider that failed construction
type unavailable struct {
	name string
	err  error
}

func (u *unavailable) Name() string {
	return u.name
}

func (u *unavailable) IsAvailable(context.Context) bool {
	return false
}

func (u *unavailable) Generate(context.Context, Request) (*Response, error) {
	return nil, u.err
}
