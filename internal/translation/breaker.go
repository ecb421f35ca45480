package translation

import (
	"context"
	"time"

	"github.com/bookshelf-recommend-api/internal/metrics"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerTranslator wraps a Translator with a circuit breaker so an unreachable
// provider is skipped quickly instead of costing every request a full timeout.
type BreakerTranslator struct {
	next Translator
	cb   *gobreaker.CircuitBreaker[string]
}

// BreakerSettings tunes the breaker. Zero values use the defaults below.
type BreakerSettings struct {
	Name             string
	ConsecutiveFails uint32        // trip after this many consecutive failures (default 5)
	OpenTimeout      time.Duration // wait before half-open (default 30s)
	Interval         time.Duration // closed-state count reset (default 1m)
}

// NewBreakerTranslator creates a circuit breaker around next
func NewBreakerTranslator(next Translator, s BreakerSettings) *BreakerTranslator {
	if s.Name == "" {
		s.Name = "translation"
	}
	if s.ConsecutiveFails == 0 {
		s.ConsecutiveFails = 5
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &BreakerTranslator{next: next, cb: cb}
}

// Translate runs the wrapped call unless the circuit is open
func (b *BreakerTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.next.Translate(ctx, text, source, target)
	})
}

// State reports the current breaker state.
func (b *BreakerTranslator) State() gobreaker.State {
	return b.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
