package services

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/bookshelf-recommend-api/internal/corpus"
	"github.com/bookshelf-recommend-api/internal/metrics"
	"github.com/bookshelf-recommend-api/internal/tfidf"
	"github.com/panjf2000/ants/v2"
)

// DefaultChunkRows is the number of corpus rows one pool task scores.
const DefaultChunkRows = 4096

// Scorer computes the linear kernel of a query against every corpus row.
// Corpora larger than one chunk are split across a shared worker pool; each
// task writes a disjoint range of the request's score slice.
type Scorer struct {
	pool      *ants.Pool
	chunkRows int
}

// NewScorer creates a scorer. poolSize <= 0 uses GOMAXPROCS workers.
func NewScorer(poolSize, chunkRows int) (*Scorer, error) {
	if poolSize <= 0 {
		poolSize = runtime.GOMAXPROCS(0)
	}
	if chunkRows <= 0 {
		chunkRows = DefaultChunkRows
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("create scorer pool: %w", err)
	}
	return &Scorer{pool: pool, chunkRows: chunkRows}, nil
}

// Release stops the worker pool.
func (s *Scorer) Release() {
	s.pool.Release()
}

// Score vectorizes text and returns one similarity score per corpus row.
func (s *Scorer) Score(ctx context.Context, store *corpus.Store, text string) ([]float64, error) {
	start := time.Now()
	defer func() { metrics.ScoringDuration.Observe(time.Since(start).Seconds()) }()

	query := store.Vectorizer().Transform(text)
	return s.kernel(ctx, store.Features(), query)
}

// ScoreRow scores every corpus row against the features of row i.
func (s *Scorer) ScoreRow(ctx context.Context, store *corpus.Store, i int) ([]float64, error) {
	return s.kernel(ctx, store.Features(), store.Features().Row(i))
}

func (s *Scorer) kernel(ctx context.Context, features *tfidf.CSR, query tfidf.SparseVector) ([]float64, error) {
	rows := features.Rows()
	if rows <= s.chunkRows || query.IsZero() {
		return features.LinearKernel(query)
	}
	if query.Dim != features.Cols() {
		return nil, fmt.Errorf("query has %d features, matrix has %d: %w", query.Dim, features.Cols(), tfidf.ErrShapeMismatch)
	}

	dense := query.Dense()
	out := make([]float64, rows)

	var wg sync.WaitGroup
	for from := 0; from < rows; from += s.chunkRows {
		to := min(from+s.chunkRows, rows)
		task := func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			features.DotRows(dense, from, to, out)
		}

		wg.Add(1)
		if err := s.pool.Submit(task); err != nil {
			// Pool released or overloaded; score this chunk inline.
			task()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("score corpus: %w", err)
	}
	return out, nil
}
