package evidence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/watchdog/internal/cache"
	"github.com/ppiankov/watchdog/internal/model"
	"github.com/ppiankov/watchdog/internal/util"
	"github.com/ppiankov/watchdog/internal/worker"
	"go.uber.org/zap"
)

// ErrDisallowed is returned when robots.txt forbids fetching a URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// URLProvider fetches a fixed list of reference pages and ranks them per query
type URLProvider struct {
	urls      []string
	fetcher   *Fetcher
	robots    *util.RobotsChecker
	authority *AuthorityClassifier
	limiter   *worker.Limiter
	cache     cache.Cache
	cacheTTL  time.Duration
	log       *zap.Logger
}

// NewURLProvider builds a provider over urls from evidence settings
func NewURLProvider(cfg model.EvidenceConfig, c cache.Cache, cacheTTL time.Duration, limiter *worker.Limiter, log *zap.Logger) *URLProvider {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &URLProvider{
		urls:      cfg.URLs,
		fetcher:   NewFetcher(cfg.Timeout, cfg.UserAgent, cfg.MaxBodyBytes),
		robots:    util.NewRobotsChecker(cfg.UserAgent, cfg.Timeout),
		authority: NewAuthorityClassifier(cfg.Authority),
		limiter:   limiter,
		cache:     c,
		cacheTTL:  cacheTTL,
		log:       log,
	}
}

// Retrieve loads each URL (from cache when possible) and ranks the pages.
// Unreachable pages are skipped and reported in the joined error.
func (p *URLProvider) Retrieve(ctx context.Context, query string, k int) ([]model.Document, error) {
	var docs []model.Document
	var errs []error
	for _, u := range p.urls {
		doc, err := p.load(ctx, u)
		if err != nil {
			p.log.Warn("evidence fetch failed", zap.String("url", u), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
			continue
		}
		docs = append(docs, doc)
	}
	return Rank(query, docs, k), errors.Join(errs...)
}

func (p *URLProvider) load(ctx context.Context, rawURL string) (model.Document, error) {
	key := cache.Key("evidence", rawURL)
	var doc model.Document
	if cache.GetJSON(p.cache, key, &doc) {
		return doc, nil
	}

	allowed, crawlDelay, err := p.robots.CanFetch(ctx, rawURL)
	if err != nil {
		return doc, err
	}
	if !allowed {
		return doc, ErrDisallowed
	}
	if p.limiter != nil {
		if err := p.limiter.WaitURL(ctx, rawURL); err != nil {
			return doc, err
		}
	}
	if crawlDelay > 0 {
		select {
		case <-ctx.Done():
			return doc, ctx.Err()
		case <-time.After(crawlDelay):
		}
	}

	result, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return doc, err
	}

	content := result.Body
	meta := map[string]string{
		"source":    "url",
		"authority": string(p.authority.Classify(result.FinalURL)),
	}
	if isHTML(result.ContentType) {
		title, text, err := VisibleText(result.Body)
		if err != nil {
			return doc, fmt.Errorf("parse html: %w", err)
		}
		content = text
		if title != "" {
			meta["title"] = title
		}
	}

	doc = model.Document{Content: content, Source: result.FinalURL, Metadata: meta}
	if err := cache.SetJSON(p.cache, key, doc, p.cacheTTL); err != nil {
		p.log.Debug("evidence cache write failed", zap.Error(err))
	}
	return doc, nil
}
