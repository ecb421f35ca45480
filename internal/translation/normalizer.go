// Package translation turns free-text queries into the corpus's working language.
// Translation is best effort: every failure degrades to the original text.
package translation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bookshelf-recommend-api/internal/logger"
	"github.com/bookshelf-recommend-api/internal/metrics"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 5 * time.Second

// Normalizer translates queries with a bounded timeout, a client-side rate limit
// and an optional cache. It never returns an error.
type Normalizer struct {
	translator Translator
	cache      Cache
	limiter    *rate.Limiter
	source     string
	target     string
	timeout    time.Duration
	closers    []func() error
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithCache enables caching of successful translations.
func WithCache(c Cache) Option {
	return func(n *Normalizer) {
		n.cache = c
	}
}

// WithRateLimit caps outbound provider calls per second. perSecond <= 0 disables it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(n *Normalizer) {
		if perSecond <= 0 {
			n.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		n.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(n *Normalizer) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithLanguages sets the source and target language codes.
func WithLanguages(source, target string) Option {
	return func(n *Normalizer) {
		n.source = source
		n.target = target
	}
}

// WithCloser registers a cleanup function run by Close.
func WithCloser(fn func() error) Option {
	return func(n *Normalizer) {
		n.closers = append(n.closers, fn)
	}
}

// NewNormalizer creates a normalizer. A nil translator disables translation.
func NewNormalizer(t Translator, opts ...Option) *Normalizer {
	n := &Normalizer{
		translator: t,
		source:     "id",
		target:     "en",
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns the translated query, or the original text tagged
// OutcomeFellBack when translation is unavailable or fails.
func (n *Normalizer) Normalize(ctx context.Context, text string) Result {
	log := logger.For(ctx)

	if n.translator == nil {
		metrics.TranslationOutcomes.WithLabelValues("disabled").Inc()
		return Result{Text: text, Outcome: OutcomeFellBack, Err: ErrDisabled}
	}

	key := cacheKey(n.source, n.target, text)
	if n.cache != nil {
		cached, ok, err := n.cache.Get(ctx, key)
		if err != nil {
			log.WithError(err).Warn("translation cache lookup failed")
		} else if ok {
			metrics.TranslationOutcomes.WithLabelValues("cached").Inc()
			return Result{Text: cached, Outcome: OutcomeTranslated, Cached: true}
		}
	}

	translated, err := n.translate(ctx, text)
	if err != nil {
		log.WithError(err).WithField("query", text).Warn("translation failed, using original query")
		metrics.TranslationOutcomes.WithLabelValues(OutcomeFellBack.String()).Inc()
		return Result{Text: text, Outcome: OutcomeFellBack, Err: err}
	}

	if n.cache != nil {
		if err := n.cache.Set(ctx, key, translated); err != nil {
			log.WithError(err).Warn("translation cache store failed")
		}
	}

	log.WithFields(map[string]interface{}{
		"query":      text,
		"translated": translated,
	}).Debug("query translated")
	metrics.TranslationOutcomes.WithLabelValues(OutcomeTranslated.String()).Inc()
	return Result{Text: translated, Outcome: OutcomeTranslated}
}

func (n *Normalizer) translate(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit: %w", err)
		}
	}

	start := time.Now()
	out, err := n.translator.Translate(ctx, text, n.source, n.target)
	metrics.TranslationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyTranslation
	}
	return out, nil
}

// Close releases the provider client and cache.
func (n *Normalizer) Close() error {
	var firstErr error
	for _, fn := range n.closers {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
