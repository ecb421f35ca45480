// Package corpus holds the immutable catalog the recommender scores against: book
// records paired row-for-row with their TF-IDF feature vectors.
package corpus

import (
	"errors"
	"fmt"
	"slices"

	"github.com/bookshelf-recommend-api/internal/tfidf"
)

var (
	// ErrCorpusEmpty is returned when a corpus has no records.
	ErrCorpusEmpty = errors.New("corpus has no records")
	// ErrRowMismatch is returned when records and feature rows disagree.
	ErrRowMismatch = errors.New("record count does not match feature matrix rows")
)

// Store is the shared, read-only corpus. It is built once at startup and never
// modified afterwards, so it may be read from any number of goroutines.
type Store struct {
	records    []BookRecord
	vectorizer *tfidf.Vectorizer
	features   *tfidf.CSR
	similarity *tfidf.CSR
}

// NewStore checks that the parts describe the same corpus. similarity may be nil.
func NewStore(records []BookRecord, vectorizer *tfidf.Vectorizer, features, similarity *tfidf.CSR) (*Store, error) {
	if len(records) == 0 {
		return nil, ErrCorpusEmpty
	}
	if vectorizer == nil || features == nil {
		return nil, errors.New("vectorizer and feature matrix are required")
	}
	if features.Rows() != len(records) {
		return nil, fmt.Errorf("%d records, %d feature rows: %w", len(records), features.Rows(), ErrRowMismatch)
	}
	if features.Cols() != vectorizer.Features() {
		return nil, fmt.Errorf("feature matrix has %d columns, vectorizer has %d terms: %w",
			features.Cols(), vectorizer.Features(), tfidf.ErrShapeMismatch)
	}
	if similarity != nil && (similarity.Rows() != len(records) || similarity.Cols() != len(records)) {
		return nil, fmt.Errorf("similarity matrix is %dx%d, want %dx%d: %w",
			similarity.Rows(), similarity.Cols(), len(records), len(records), tfidf.ErrShapeMismatch)
	}

	owned := make([]BookRecord, len(records))
	copy(owned, records)

	return &Store{
		records:    owned,
		vectorizer: vectorizer,
		features:   features,
		similarity: similarity,
	}, nil
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Record returns the record at row i.
func (s *Store) Record(i int) BookRecord {
	return s.records[i]
}

// Records returns a copy of the records in corpus order.
func (s *Store) Records() []BookRecord {
	return slices.Clone(s.records)
}

func (s *Store) Vectorizer() *tfidf.Vectorizer { return s.vectorizer }

func (s *Store) Features() *tfidf.CSR { return s.features }

// Similarity returns the precomputed similarity matrix, or nil when none was loaded.
func (s *Store) Similarity() *tfidf.CSR { return s.similarity }

// Stats summarizes the corpus for health checks and the CLI.
type Stats struct {
	Records          int  `json:"records"`
	Features         int  `json:"features"`
	NonZero          int  `json:"non_zero"`
	SimilarityLoaded bool `json:"similarity_loaded"`
}

func (s *Store) Stats() Stats {
	return Stats{
		Records:          len(s.records),
		Features:         s.features.Cols(),
		NonZero:          s.features.NNZ(),
		SimilarityLoaded: s.similarity != nil,
	}
}
