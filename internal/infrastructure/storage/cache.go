package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/lokix94/peru-hub-sub000/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	summaryCacheKey = "payhub:summary"
	defaultCacheTTL = time.Minute
)

// Summarizer recomputes the wallet summary from the explorer. Degradation
// is reported through the summary note, never through an error.
type Summarizer interface {
	Summarize(ctx context.Context) domain.WalletSummary
}

type CacheConfig struct {
	Addr string
	TTL  time.Duration
}

// CachedSummarizer is a read-through TTL cache over a Summarizer. Only the
// aggregate dashboard is cached; receipts and verdicts always go upstream.
// An empty addr disables caching and passes every call straight through.
type CachedSummarizer struct {
	base  Summarizer
	cache *redis.Client
	ttl   time.Duration
}

func NewCachedSummarizer(base Summarizer, cfg CacheConfig) (*CachedSummarizer, error) {
	if base == nil {
		return nil, errors.New("base summarizer is required")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return &CachedSummarizer{base: base}, nil
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &CachedSummarizer{base: base, cache: client, ttl: cfg.TTL}, nil
}

func (c *CachedSummarizer) Summarize(ctx context.Context) domain.WalletSummary {
	if c.cache == nil {
		return c.base.Summarize(ctx)
	}
	if cached, err := c.cache.Get(ctx, summaryCacheKey).Result(); err == nil {
		var summary domain.WalletSummary
		if err := json.Unmarshal([]byte(cached), &summary); err == nil {
			return summary
		}
	}

	summary := c.base.Summarize(ctx)
	// degraded summaries are never cached
	if summary.Note != "" {
		return summary
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return summary
	}
	_ = c.cache.Set(ctx, summaryCacheKey, payload, c.ttl).Err()
	return summary
}

func (c *CachedSummarizer) Close() error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Close()
}
