package services

import (
	"strings"

	"github.com/bookshelf-recommend-api/internal/corpus"
	"github.com/bookshelf-recommend-api/internal/models"
	"golang.org/x/text/cases"
)

// MaxSuggestions caps the number of autocomplete entries.
const MaxSuggestions = 10

// SuggestionMatcher does case-insensitive substring lookups over titles.
// Folded titles are computed once; records without a title never match.
type SuggestionMatcher struct {
	store  *corpus.Store
	folded []string
}

func NewSuggestionMatcher(store *corpus.Store) *SuggestionMatcher {
	folder := cases.Fold()
	folded := make([]string, store.Len())
	for i, rec := range store.Records() {
		if rec.Title != nil {
			folded[i] = folder.String(*rec.Title)
		}
	}
	return &SuggestionMatcher{store: store, folded: folded}
}

type suggestionKey struct {
	title string
	year  string
}

// Suggest returns up to MaxSuggestions distinct (title, year) pairs whose title
// contains the query, in corpus order. A blank query yields an empty list.
func (m *SuggestionMatcher) Suggest(raw string) []models.Suggestion {
	results := []models.Suggestion{}
	query := strings.TrimSpace(raw)
	if query == "" {
		return results
	}
	needle := cases.Fold().String(query)

	seen := make(map[suggestionKey]struct{})
	for i, title := range m.folded {
		if title == "" || !strings.Contains(title, needle) {
			continue
		}
		rec := m.store.Record(i)
		key := suggestionKey{title: *rec.Title, year: rec.YearKey()}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		results = append(results, models.Suggestion{
			Title:         *rec.Title,
			PublishedYear: rec.DisplayPublishedYear(),
		})
		if len(results) == MaxSuggestions {
			break
		}
	}
	return results
}
