package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bookshelf-recommend-api/internal/corpus"
	"github.com/bookshelf-recommend-api/internal/logger"
	"github.com/bookshelf-recommend-api/internal/metrics"
	"github.com/bookshelf-recommend-api/internal/models"
	"github.com/bookshelf-recommend-api/internal/translation"
	"github.com/sirupsen/logrus"
)

// DefaultShelfSize is the number of featured books returned when no limit is given.
const DefaultShelfSize = 12

// QueryNormalizer translates a raw query; it never fails
type QueryNormalizer interface {
	Normalize(ctx context.Context, text string) translation.Result
}

// RecommendService handles recommendation, suggestion and browsing requests
type RecommendService struct {
	store       *corpus.Store
	normalizer  QueryNormalizer
	scorer      *Scorer
	suggestions *SuggestionMatcher
	policy      Policy
	perm        PermFunc
	shelf       []int
}

// NewRecommendService creates a new recommendation service over a loaded corpus
func NewRecommendService(store *corpus.Store, normalizer QueryNormalizer, scorer *Scorer, policy Policy) *RecommendService {
	return &RecommendService{
		store:       store,
		normalizer:  normalizer,
		scorer:      scorer,
		suggestions: NewSuggestionMatcher(store),
		policy:      policy,
		shelf:       featuredOrder(store),
	}
}

// WithPerm replaces the random source used for fallback samples.
func (s *RecommendService) WithPerm(perm PermFunc) *RecommendService {
	s.perm = perm
	return s
}

// Store returns the corpus the service reads from.
func (s *RecommendService) Store() *corpus.Store {
	return s.store
}

// Recommend translates, scores and ranks a free-text query
func (s *RecommendService) Recommend(ctx context.Context, raw string) (*models.Envelope, error) {
	query := strings.TrimSpace(raw)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	normalized := s.normalizer.Normalize(ctx, query)
	log := logger.For(ctx).WithFields(logrus.Fields{
		"query":       query,
		"normalized":  normalized.Text,
		"translation": normalized.Outcome.String(),
	})

	scores, err := s.scorer.Score(ctx, s.store, normalized.Text)
	if err != nil {
		metrics.RecommendOutcomes.WithLabelValues(models.StatusError).Inc()
		return nil, fmt.Errorf("score query: %w", err)
	}

	sel := Select(scores, s.policy, s.perm)
	env := &models.Envelope{Results: formatSelection(s.store, sel)}
	if sel.Kind == SelectionFallback {
		env.Status = models.StatusFallback
		env.Message = fmt.Sprintf("No match found for '%s', Try another book.", normalized.Text)
	} else {
		env.Status = models.StatusSuccess
		env.Message = fmt.Sprintf("Top results for '%s'", normalized.Text)
	}

	metrics.RecommendOutcomes.WithLabelValues(env.Status).Inc()
	log.WithFields(logrus.Fields{
		"status":  env.Status,
		"results": len(env.Results),
	}).Info("recommendation served")
	return env, nil
}

// Suggest returns title suggestions for autocomplete
func (s *RecommendService) Suggest(raw string) []models.Suggestion {
	return s.suggestions.Suggest(raw)
}

// featuredOrder sorts rows by average rating, best first; unrated rows go last.
func featuredOrder(store *corpus.Store) []int {
	rows := make([]int, store.Len())
	for i := range rows {
		rows[i] = i
	}
	slices.SortStableFunc(rows, func(a, b int) int {
		ra, rb := store.Record(a).AverageRating, store.Record(b).AverageRating
		switch {
		case ra == nil && rb == nil:
			return 0
		case ra == nil:
			return 1
		case rb == nil:
			return -1
		}
		return cmp.Compare(*rb, *ra)
	})
	return rows
}

// Defaults returns the featured shelf: the highest rated books
func (s *RecommendService) Defaults(limit int) *models.Envelope {
	if limit <= 0 {
		limit = DefaultShelfSize
	}
	limit = min(limit, len(s.shelf))

	results := make([]models.BookResult, 0, limit)
	for _, row := range s.shelf[:limit] {
		results = append(results, rankedResult(s.store.Record(row), 0))
	}
	return &models.Envelope{
		Results: results,
		Message: "Featured books",
		Status:  models.StatusSuccess,
	}
}

// Similar returns the books closest to the corpus row at index
func (s *RecommendService) Similar(ctx context.Context, index, limit int) (*models.Envelope, error) {
	if index < 0 || index >= s.store.Len() {
		return nil, fmt.Errorf("book %d: %w", index, ErrBookNotFound)
	}
	if limit <= 0 {
		limit = s.policy.MaxResults
	}

	var scores []float64
	if sim := s.store.Similarity(); sim != nil {
		scores = sim.RowDense(index)
	} else {
		var err error
		scores, err = s.scorer.ScoreRow(ctx, s.store, index)
		if err != nil {
			return nil, fmt.Errorf("score book %d: %w", index, err)
		}
	}

	hits := make([]Hit, 0)
	for row, score := range scores {
		if row != index && score > 0 {
			hits = append(hits, Hit{Row: row, Score: score})
		}
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	return &models.Envelope{
		Results: formatSelection(s.store, Selection{Kind: SelectionRanked, Hits: hits}),
		Message: fmt.Sprintf("Books similar to '%s'", s.store.Record(index).DisplayTitle()),
		Status:  models.StatusSuccess,
	}, nil
}
