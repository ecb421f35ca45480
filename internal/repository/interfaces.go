package repository

import (
	"context"

	"github.com/bookshelf-recommend-api/internal/corpus"
)

// CorpusRepository loads the immutable corpus the service scores against
type CorpusRepository interface {
	// LoadCorpus builds the complete corpus or fails; it never returns a partial store
	LoadCorpus(ctx context.Context) (*corpus.Store, error)
}
