package services

import (
	"fmt"
	"testing"

	"github.com/bookshelf-recommend-api/internal/corpus"
	"github.com/bookshelf-recommend-api/internal/corpus/corpustest"
	"github.com/bookshelf-recommend-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	m := NewSuggestionMatcher(corpustest.NewStore(t, corpustest.Catalog))

	tests := []struct {
		name  string
		query string
		want  []models.Suggestion
	}{
		{"blank", "   ", []models.Suggestion{}},
		{"deduplicated", "hobbit", []models.Suggestion{{Title: "The Hobbit", PublishedYear: 1937.0}}},
		{"case insensitive", "DUNE", []models.Suggestion{
			{Title: "Dune", PublishedYear: 1965.0},
			{Title: "Dune Messiah", PublishedYear: 1969.0},
		}},
		{"missing year", "notes", []models.Suggestion{{Title: "Untitled Notes", PublishedYear: corpus.NotAvailable}}},
		{"literal match", "d.*e", []models.Suggestion{}},
		{"no match", "zebra", []models.Suggestion{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Suggest(tt.query))
		})
	}
}

func TestSuggest_Cap(t *testing.T) {
	var books []corpustest.Book
	for i := 0; i < 15; i++ {
		books = append(books, corpustest.Book{Title: fmt.Sprintf("Volume %d", i), Description: "series", Year: float64(2000 + i)})
	}
	m := NewSuggestionMatcher(corpustest.NewStore(t, books))

	got := m.Suggest("volume")
	assert.Len(t, got, MaxSuggestions)
	assert.Equal(t, "Volume 0", got[0].Title)
}

func TestSuggest_UnicodeFolding(t *testing.T) {
	m := NewSuggestionMatcher(corpustest.NewStore(t, []corpustest.Book{
		{Title: "Straße der Ölmühlen", Description: "eine Geschichte"},
	}))

	assert.Len(t, m.Suggest("STRASSE"), 1)
	assert.Len(t, m.Suggest("ölmühlen"), 1)
}
