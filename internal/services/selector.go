package services

import (
	"math/rand/v2"
	"slices"

	"github.com/bookshelf-recommend-api/internal/config"
)

// SelectionKind tells which branch of the ranking policy produced a selection
type SelectionKind int

const (
	// SelectionFallback is a random sample returned when nothing matched at all
	SelectionFallback SelectionKind = iota
	// SelectionRanked holds the rows above the relevance floor, best first
	SelectionRanked
)

func (k SelectionKind) String() string {
	if k == SelectionFallback {
		return "fallback"
	}
	return "ranked"
}

// Hit is one selected corpus row
type Hit struct {
	Row   int
	Score float64
}

// Selection is the outcome of applying a Policy to a score vector
type Selection struct {
	Kind SelectionKind
	Hits []Hit
}

// Policy holds the ranking constants
type Policy struct {
	RelevanceFloor float64
	FallbackSize   int
	MaxResults     int
}

// DefaultPolicy returns the stock ranking constants.
func DefaultPolicy() Policy {
	return Policy{RelevanceFloor: 0.1, FallbackSize: 5, MaxResults: 12}
}

// PolicyFromConfig reads the ranking constants from configuration.
func PolicyFromConfig(cfg config.Ranking) Policy {
	return Policy{
		RelevanceFloor: cfg.RelevanceFloor,
		FallbackSize:   cfg.FallbackSize,
		MaxResults:     cfg.MaxResults,
	}
}

// PermFunc returns a random permutation of [0, n).
type PermFunc func(n int) []int

// Select applies the policy. When no row scores above zero it samples
// min(FallbackSize, len(scores)) distinct rows with score 0. Otherwise it keeps
// rows scoring strictly above the floor, best first with ties in row order,
// capped at MaxResults. A ranked selection may be empty.
func Select(scores []float64, policy Policy, perm PermFunc) Selection {
	if perm == nil {
		perm = rand.Perm
	}

	best := 0.0
	for _, s := range scores {
		best = max(best, s)
	}

	if best == 0 {
		k := min(policy.FallbackSize, len(scores))
		hits := make([]Hit, 0, max(k, 0))
		if k > 0 {
			for _, row := range perm(len(scores))[:k] {
				hits = append(hits, Hit{Row: row})
			}
		}
		return Selection{Kind: SelectionFallback, Hits: hits}
	}

	hits := []Hit{}
	for row, s := range scores {
		if s > policy.RelevanceFloor {
			hits = append(hits, Hit{Row: row, Score: s})
		}
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if policy.MaxResults >= 0 && len(hits) > policy.MaxResults {
		hits = hits[:policy.MaxResults]
	}
	return Selection{Kind: SelectionRanked, Hits: hits}
}
