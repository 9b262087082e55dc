package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/watchdog/internal/cache"
	"github.com/ppiankov/watchdog/internal/model"
	"github.com/ppiankov/watchdog/internal/worker"
	"go.uber.org/zap"
)

// Proxy forwards prompts to a provider with pacing, retries, an answer
// cache and an optional canned-answer fallback
type Proxy struct {
	provider   Provider
	mock       Provider
	cache      cache.Cache
	cacheTTL   time.Duration
	limiter    *worker.Limiter
	maxRetries int
	fallback   bool
	log        *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// ProxyOption configures a Proxy
type ProxyOption func(*Proxy)

// WithCache caches successful upstream answers
func WithCache(c cache.Cache, ttl time.Duration) ProxyOption {
	return func(p *Proxy) {
		p.cache = c
		p.cacheTTL = ttl
	}
}

// WithLimiter paces upstream calls per provider
func WithLimiter(l *worker.Limiter) ProxyOption {
	return func(p *Proxy) { p.limiter = l }
}

// WithRetries sets how many times a transient failure is retried
func WithRetries(n int) ProxyOption {
	return func(p *Proxy) { p.maxRetries = max(n, 0) }
}

// WithFallback answers from the mock provider when the upstream fails
func WithFallback(enabled bool) ProxyOption {
	return func(p *Proxy) { p.fallback = enabled }
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) ProxyOption {
	return func(p *Proxy) {
		if log != nil {
			p.log = log
		}
	}
}

// NewProxy wraps provider
func NewProxy(provider Provider, opts ...ProxyOption) *Proxy {
	p := &Proxy{
		provider: provider,
		mock:     NewMockProvider(),
		cache:    cache.Noop{},
		log:      zap.NewNop(),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Provider returns the wrapped provider
func (p *Proxy) Provider() Provider {
	return p.provider
}

// Forward sends prompt upstream and returns the raw answer
func (p *Proxy) Forward(ctx context.Context, prompt string, domain model.Domain) (*Response, error) {
	req := Request{Prompt: prompt, Domain: domain}

	if p.provider.Name() == "mock" {
		return p.provider.Generate(ctx, req)
	}

	key := cache.Key("llm", p.provider.Name(), string(domain), prompt)
	var cached Response
	if cache.GetJSON(p.cache, key, &cached) {
		cached.Cached = true
		return &cached, nil
	}

	resp, err := p.generateWithRetry(ctx, req)
	if err == nil {
		if err := cache.SetJSON(p.cache, key, resp, p.cacheTTL); err != nil {
			p.log.Debug("llm cache write failed", zap.Error(err))
		}
		return resp, nil
	}

	p.log.Error("llm call failed", zap.String("provider", p.provider.Name()), zap.Error(err))
	if !p.fallback || ctx.Err() != nil {
		return nil, err
	}

	p.log.Warn("falling back to mock responses", zap.String("provider", p.provider.Name()))
	resp, mockErr := p.mock.Generate(ctx, req)
	if mockErr != nil {
		return nil, err
	}
	resp.Fallback = true
	return resp, nil
}

// generateWithRetry backs off 1s, 2s, 4s... between attempts on transient errors
func (p *Proxy) generateWithRetry(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<(attempt-1)) * time.Second
			p.log.Info("retrying llm call",
				zap.Int("attempt", attempt), zap.Int("max_retries", p.maxRetries), zap.Duration("wait", wait))
			if err := p.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx, p.provider.Name()); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		resp, err := p.provider.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !Retryable(err) {
			return nil, err
		}
		p.log.Warn("transient llm error", zap.Int("attempt", attempt+1), zap.Error(err))
		lastErr = err
	}
	return nil, fmt.Errorf("llm call failed after %d attempts: %w", p.maxRetries+1, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
