package translation

import (
	"context"
	"errors"
)

var (
	// ErrEmptyTranslation is returned when a provider answers with no text.
	ErrEmptyTranslation = errors.New("translation provider returned empty text")
	// ErrDisabled marks a normalizer configured without a provider.
	ErrDisabled = errors.New("translation disabled")
)

// Translator defines the interface for machine translation providers
type Translator interface {
	// Translate converts text from the source language into the target language.
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(ctx context.Context, text, source, target string) (string, error)

func (f TranslatorFunc) Translate(ctx context.Context, text, source, target string) (string, error) {
	return f(ctx, text, source, target)
}

// Outcome tags how a query was normalized. It is for logs and metrics only.
type Outcome int

const (
	OutcomeTranslated Outcome = iota
	OutcomeFellBack
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTranslated:
		return "translated"
	case OutcomeFellBack:
		return "fell_back"
	default:
		return "unknown"
	}
}

// Result is the normalized form of a query.
type Result struct {
	Text    string
	Outcome Outcome
	Cached  bool
	// Err is the reason translation was skipped when Outcome is OutcomeFellBack.
	Err error
}
