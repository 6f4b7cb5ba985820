package embedding

import (
	"context"
	"slices"
	"time"

	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/pkg/retry"

	"github.com/patrickmn/go-cache"
)

type retrying struct {
	Provider
	policy retry.Policy
	log    logger.ILogger
}

// WithRetry retries transient embedding failures with bounded backoff.
func WithRetry(p Provider, policy retry.Policy, log logger.ILogger) Provider {
	return &retrying{Provider: p, policy: policy, log: log}
}

func (r *retrying) notify(op string) retry.Notify {
	return func(err error, wait time.Duration) {
		r.log.Warn("EMBEDDING", "Retrying "+op, map[string]interface{}{
			"provider": r.Name(),
			"error":    err.Error(),
			"wait":     wait.String(),
		})
	}
}

func (r *retrying) Embed(ctx context.Context, text string) ([]float32, error) {
	return retry.Do(ctx, r.policy, func(ctx context.Context) ([]float32, error) {
		return r.Provider.Embed(ctx, text)
	}, r.notify("embed"))
}

func (r *retrying) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return retry.Do(ctx, r.policy, func(ctx context.Context) ([][]float32, error) {
		return r.Provider.EmbedBatch(ctx, texts)
	}, r.notify("embed batch"))
}

type caching struct {
	Provider
	cache *cache.Cache
}

// WithCache memoizes query-side Embed calls for ttl. Batches are never cached.
func WithCache(p Provider, ttl time.Duration) Provider {
	return &caching{Provider: p, cache: cache.New(ttl, 2*ttl)}
}

func (c *caching) Embed(ctx context.Context, text string) ([]float32, error) {
	if x, found := c.cache.Get(text); found {
		return slices.Clone(x.([]float32)), nil
	}
	vec, err := c.Provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	// callers own the returned slice; the cache keeps its own copy
	c.cache.Set(text, slices.Clone(vec), cache.DefaultExpiration)
	return vec, nil
}
