package corpus_test

import (
	"strings"
	"testing"

	"github.com/bookshelf-recommend-api/internal/corpus"
	"github.com/bookshelf-recommend-api/internal/corpus/corpustest"
	"github.com/bookshelf-recommend-api/internal/tfidf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	docs := []string{"dragon magic", "love story"}
	v, err := tfidf.NewVectorizer(corpustest.Fit(docs))
	require.NoError(t, err)
	features := corpustest.Matrix(v, docs)
	records := []corpus.BookRecord{corpustest.Record(corpustest.Book{Title: "A"}), corpustest.Record(corpustest.Book{Title: "B"})}

	t.Run("valid", func(t *testing.T) {
		store, err := corpus.NewStore(records, v, features, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, store.Len())
		assert.Equal(t, corpus.Stats{Records: 2, Features: 4, NonZero: 4}, store.Stats())
		assert.Nil(t, store.Similarity())
	})

	t.Run("empty corpus", func(t *testing.T) {
		_, err := corpus.NewStore(nil, v, features, nil)
		assert.ErrorIs(t, err, corpus.ErrCorpusEmpty)
	})

	t.Run("row mismatch", func(t *testing.T) {
		_, err := corpus.NewStore(records[:1], v, features, nil)
		assert.ErrorIs(t, err, corpus.ErrRowMismatch)
	})

	t.Run("column mismatch", func(t *testing.T) {
		other, err := tfidf.NewVectorizer(corpustest.Fit([]string{"one two three"}))
		require.NoError(t, err)
		_, err = corpus.NewStore(records, other, features, nil)
		assert.ErrorIs(t, err, tfidf.ErrShapeMismatch)
	})

	t.Run("similarity shape", func(t *testing.T) {
		sim, err := tfidf.NewCSR(2, 3, []int{0, 0, 0}, nil, nil)
		require.NoError(t, err)
		_, err = corpus.NewStore(records, v, features, sim)
		assert.ErrorIs(t, err, tfidf.ErrShapeMismatch)
	})

	t.Run("caller slice is not shared", func(t *testing.T) {
		own := append([]corpus.BookRecord(nil), records...)
		store, err := corpus.NewStore(own, v, features, nil)
		require.NoError(t, err)
		own[0] = corpus.BookRecord{}
		assert.Equal(t, "A", store.Record(0).DisplayTitle())
	})
}

func TestStoreRecords(t *testing.T) {
	store := corpustest.NewStore(t, corpustest.Catalog)

	records := store.Records()
	require.Len(t, records, len(corpustest.Catalog))
	for i, rec := range records {
		assert.Equal(t, store.Record(i), rec)
	}

	records[0] = corpus.BookRecord{}
	assert.Equal(t, "The Hobbit", store.Record(0).DisplayTitle())
}

func TestDisplayDefaults(t *testing.T) {
	var rec corpus.BookRecord

	assert.Equal(t, "Unknown", rec.DisplayTitle())
	assert.Equal(t, "-", rec.DisplayAuthors())
	assert.Equal(t, "cover-not-found.jpg", rec.DisplayThumbnail())
	assert.Equal(t, "No description available.", rec.DisplayDescription())
	assert.Equal(t, "N/A", rec.DisplayPublishedYear())
	assert.Equal(t, "N/A", rec.DisplayAverageRating())
	assert.Equal(t, "N/A", rec.DisplayNumPages())
	assert.Equal(t, []string{}, rec.DisplayCategories())
	assert.Equal(t, "", rec.YearKey())

	// Defaults are applied on read; the record itself stays empty.
	assert.Nil(t, rec.Title)
	assert.Nil(t, rec.Categories)
}

func TestDisplayValues(t *testing.T) {
	rec := corpustest.Record(corpustest.Book{
		Title: "Dune", Authors: "Frank Herbert", Description: "Spice.",
		Year: 1965, Rating: 4.25, Pages: 412, Categories: []string{"SF"},
	})

	assert.Equal(t, "Dune", rec.DisplayTitle())
	assert.Equal(t, "Spice.", rec.DisplayDescription())
	assert.Equal(t, 1965.0, rec.DisplayPublishedYear())
	assert.Equal(t, 4.25, rec.DisplayAverageRating())
	assert.Equal(t, 412.0, rec.DisplayNumPages())
	assert.Equal(t, "1965", rec.YearKey())

	cats := rec.DisplayCategories()
	cats[0] = "changed"
	assert.Equal(t, []string{"SF"}, rec.Categories)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"short", "short", 5},
		{"exactly 200", strings.Repeat("a", 200), 200},
		{"201 becomes 203", strings.Repeat("a", 201), 203},
		{"long", strings.Repeat("b", 1000), 203},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := corpus.Truncate(tt.in, 200)
			assert.Len(t, []rune(got), tt.want)
		})
	}

	t.Run("counts characters not bytes", func(t *testing.T) {
		in := strings.Repeat("é", 201)
		got := corpus.Truncate(in, 200)
		assert.Equal(t, strings.Repeat("é", 200)+"...", got)

		exact := strings.Repeat("é", 150)
		assert.Equal(t, exact, corpus.Truncate(exact, 200))
	})
}
