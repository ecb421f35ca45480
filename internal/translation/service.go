package translation

import (
	"context"
	"fmt"

	"github.com/bookshelf-recommend-api/internal/config"
)

// NewFromConfig builds the normalizer the configuration asks for: the provider
// wrapped in a circuit breaker, plus rate limit, timeout and cache.
func NewFromConfig(ctx context.Context, cfg config.Translation) (*Normalizer, error) {
	opts := []Option{
		WithLanguages(cfg.SourceLang, cfg.TargetLang),
		WithTimeout(cfg.Timeout),
		WithRateLimit(cfg.RateLimit, cfg.Burst),
	}

	if cfg.Provider == "none" {
		return NewNormalizer(nil, opts...), nil
	}

	cache, err := newCache(cfg)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		opts = append(opts, WithCache(cache), WithCloser(cache.Close))
	}

	var provider Translator
	switch cfg.Provider {
	case "vertex":
		vt, err := NewVertexTranslator(ctx, VertexConfig{
			ProjectID: cfg.VertexProjectID,
			Location:  cfg.VertexLocation,
			Model:     cfg.VertexModel,
		})
		if err != nil {
			closeCache(cache)
			return nil, fmt.Errorf("failed to create Vertex AI translator: %w", err)
		}
		provider = vt
		opts = append(opts, WithCloser(vt.Close))
	case "google", "":
		provider = NewGoogleTranslator(cfg.GoogleURL)
	default:
		closeCache(cache)
		return nil, fmt.Errorf("unknown translation provider %q", cfg.Provider)
	}

	breaker := NewBreakerTranslator(provider, BreakerSettings{Name: "translation-" + cfg.Provider})
	return NewNormalizer(breaker, opts...), nil
}

func newCache(cfg config.Translation) (Cache, error) {
	switch cfg.Cache {
	case "none", "":
		return nil, nil
	case "memory":
		return NewBadgerCache(cfg.CacheTTL)
	case "redis":
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL), nil
	default:
		return nil, fmt.Errorf("unknown translation cache %q", cfg.Cache)
	}
}

func closeCache(c Cache) {
	if c != nil {
		_ = c.Close()
	}
}
