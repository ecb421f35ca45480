package services

import (
	"math"

	"github.com/bookshelf-recommend-api/internal/corpus"
	"github.com/bookshelf-recommend-api/internal/models"
)

const scoreDecimals = 1000

func roundScore(s float64) float64 {
	return math.Round(s*scoreDecimals) / scoreDecimals
}

func baseResult(rec corpus.BookRecord) models.BookResult {
	return models.BookResult{
		Title:         rec.DisplayTitle(),
		Authors:       rec.DisplayAuthors(),
		Description:   rec.DisplayDescription(),
		Thumbnail:     rec.DisplayThumbnail(),
		PublishedYear: rec.DisplayPublishedYear(),
		AverageRating: rec.DisplayAverageRating(),
	}
}

// fallbackResult formats a sampled row; it carries no categories or page count.
func fallbackResult(rec corpus.BookRecord) models.BookResult {
	return baseResult(rec)
}

func rankedResult(rec corpus.BookRecord, score float64) models.BookResult {
	res := baseResult(rec)
	categories := rec.DisplayCategories()
	res.Score = roundScore(score)
	res.Categories = &categories
	res.NumPages = rec.DisplayNumPages()
	return res
}

func formatSelection(store *corpus.Store, sel Selection) []models.BookResult {
	results := make([]models.BookResult, 0, len(sel.Hits))
	for _, hit := range sel.Hits {
		rec := store.Record(hit.Row)
		if sel.Kind == SelectionFallback {
			results = append(results, fallbackResult(rec))
		} else {
			results = append(results, rankedResult(rec, hit.Score))
		}
	}
	return results
}
