// Package artifacts loads the precomputed corpus from a static content host.
package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bookshelf-recommend-api/internal/corpus"
	"github.com/bookshelf-recommend-api/internal/logger"
	"github.com/bookshelf-recommend-api/internal/tfidf"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SimilarityDisabled as the similarity blob name skips that download.
const SimilarityDisabled = "none"

// Names lists the blob names of one corpus snapshot.
type Names struct {
	Vectorizer string
	Features   string
	Similarity string
	Metadata   string
}

// Repository implements repository.CorpusRepository over HTTP
type Repository struct {
	fetcher *Fetcher
	names   Names
	timeout time.Duration
}

// NewRepository creates a new artifact-backed corpus repository.
// A zero timeout leaves the deadline to the caller's context.
func NewRepository(fetcher *Fetcher, names Names, timeout time.Duration) *Repository {
	return &Repository{
		fetcher: fetcher,
		names:   names,
		timeout: timeout,
	}
}

func (r *Repository) similarityEnabled() bool {
	name := strings.TrimSpace(r.names.Similarity)
	return name != "" && !strings.EqualFold(name, SimilarityDisabled)
}

// Snapshot is a decoded but not yet cross-checked set of artifacts.
type Snapshot struct {
	Vectorizer *tfidf.Vectorizer
	Features   *tfidf.CSR
	Similarity *tfidf.CSR
	Records    []corpus.BookRecord
}

// Fetch downloads and decodes every artifact concurrently. Any single failure
// cancels the rest and fails the whole load.
func (r *Repository) Fetch(ctx context.Context) (*Snapshot, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	defer logger.Track(ctx, "fetch corpus artifacts")()

	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		data, err := r.fetcher.Fetch(gctx, r.names.Vectorizer)
		if err != nil {
			return err
		}
		snap.Vectorizer, err = DecodeVectorizer(data)
		if err != nil {
			return fmt.Errorf("%s: %w", r.names.Vectorizer, err)
		}
		return nil
	})

	g.Go(func() error {
		data, err := r.fetcher.Fetch(gctx, r.names.Features)
		if err != nil {
			return err
		}
		snap.Features, err = DecodeMatrix(data)
		if err != nil {
			return fmt.Errorf("%s: %w", r.names.Features, err)
		}
		return nil
	})

	if r.similarityEnabled() {
		g.Go(func() error {
			data, err := r.fetcher.Fetch(gctx, r.names.Similarity)
			if err != nil {
				return err
			}
			snap.Similarity, err = DecodeMatrix(data)
			if err != nil {
				return fmt.Errorf("%s: %w", r.names.Similarity, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		data, err := r.fetcher.Fetch(gctx, r.names.Metadata)
		if err != nil {
			return err
		}
		snap.Records, err = DecodeMetadata(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("%s: %w", r.names.Metadata, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load corpus artifacts: %w", err)
	}
	return &snap, nil
}

// LoadCorpus fetches the artifacts and assembles them into a store.
func (r *Repository) LoadCorpus(ctx context.Context) (*corpus.Store, error) {
	snap, err := r.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	store, err := corpus.NewStore(snap.Records, snap.Vectorizer, snap.Features, snap.Similarity)
	if err != nil {
		return nil, fmt.Errorf("assemble corpus: %w", err)
	}

	stats := store.Stats()
	logrus.WithFields(logrus.Fields{
		"records":    stats.Records,
		"features":   stats.Features,
		"non_zero":   stats.NonZero,
		"similarity": stats.SimilarityLoaded,
	}).Info("corpus loaded from artifacts")
	return store, nil
}
