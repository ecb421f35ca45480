package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bookshelf-recommend-api/internal/corpus"
	"github.com/bookshelf-recommend-api/internal/logger"
	"github.com/bookshelf-recommend-api/internal/repository/artifacts"
	"github.com/bookshelf-recommend-api/internal/tfidf"
	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
)

const schemaDDL = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS books (
	id             integer PRIMARY KEY,
	title          text,
	authors        text,
	description    text,
	thumbnail      text,
	published_year double precision,
	average_rating double precision,
	categories     text[],
	num_pages      double precision
);

CREATE TABLE IF NOT EXISTS book_features (
	book_id  integer PRIMARY KEY REFERENCES books(id) ON DELETE CASCADE,
	features sparsevec NOT NULL
);

CREATE TABLE IF NOT EXISTS vectorizer_state (
	id    integer PRIMARY KEY,
	state jsonb NOT NULL
);
`

// currentStateID is the single vectorizer_state row the corpus is read from.
const currentStateID = 1

// CorpusRepository implements repository.CorpusRepository for PostgreSQL with pgvector
type CorpusRepository struct {
	db *sqlx.DB
}

// NewCorpusRepository creates a new PostgreSQL corpus repository
func NewCorpusRepository(db *sqlx.DB) *CorpusRepository {
	return &CorpusRepository{db: db}
}

type bookRow struct {
	ID            int            `db:"id"`
	Title         *string        `db:"title"`
	Authors       *string        `db:"authors"`
	Description   *string        `db:"description"`
	Thumbnail     *string        `db:"thumbnail"`
	PublishedYear *float64       `db:"published_year"`
	AverageRating *float64       `db:"average_rating"`
	Categories    pq.StringArray `db:"categories"`
	NumPages      *float64       `db:"num_pages"`
}

func toRow(id int, rec corpus.BookRecord) bookRow {
	return bookRow{
		ID:            id,
		Title:         rec.Title,
		Authors:       rec.Authors,
		Description:   rec.Description,
		Thumbnail:     rec.Thumbnail,
		PublishedYear: rec.PublishedYear,
		AverageRating: rec.AverageRating,
		Categories:    pq.StringArray(rec.Categories),
		NumPages:      rec.NumPages,
	}
}

func (r bookRow) record() corpus.BookRecord {
	var categories []string
	if len(r.Categories) > 0 {
		categories = []string(r.Categories)
	}
	return corpus.BookRecord{
		Title:         r.Title,
		Authors:       r.Authors,
		Description:   r.Description,
		Thumbnail:     r.Thumbnail,
		PublishedYear: r.PublishedYear,
		AverageRating: r.AverageRating,
		Categories:    categories,
		NumPages:      r.NumPages,
	}
}

// EnsureSchema creates the corpus tables if they do not exist
func (r *CorpusRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure corpus schema: %w", err)
	}
	return nil
}

// LoadCorpus reads books, feature rows and vectorizer state into a store
func (r *CorpusRepository) LoadCorpus(ctx context.Context) (*corpus.Store, error) {
	defer logger.Track(ctx, "load corpus from postgres")()

	var rawState []byte
	err := r.db.GetContext(ctx, &rawState, `SELECT state FROM vectorizer_state WHERE id = $1`, currentStateID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load vectorizer state: %w", corpus.ErrCorpusEmpty)
	}
	if err != nil {
		return nil, fmt.Errorf("load vectorizer state: %w", err)
	}
	vectorizer, err := artifacts.DecodeVectorizer(rawState)
	if err != nil {
		return nil, err
	}

	var rows []bookRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT id, title, authors, description, thumbnail,
		       published_year, average_rating, categories, num_pages
		FROM books
		ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}

	records := make([]corpus.BookRecord, len(rows))
	for i, row := range rows {
		if row.ID != i {
			return nil, fmt.Errorf("books are not numbered contiguously: row %d has id %d", i, row.ID)
		}
		records[i] = row.record()
	}

	features, err := r.loadFeatures(ctx, len(records), vectorizer.Features())
	if err != nil {
		return nil, err
	}

	store, err := corpus.NewStore(records, vectorizer, features, nil)
	if err != nil {
		return nil, fmt.Errorf("assemble corpus: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"records":  store.Len(),
		"features": features.Cols(),
	}).Info("corpus loaded from postgres")
	return store, nil
}

func (r *CorpusRepository) loadFeatures(ctx context.Context, rows, cols int) (*tfidf.CSR, error) {
	dbRows, err := r.db.QueryxContext(ctx, `SELECT book_id, features FROM book_features ORDER BY book_id`)
	if err != nil {
		return nil, fmt.Errorf("load features: %w", err)
	}
	defer dbRows.Close()

	vectors := make([]pgvector.SparseVector, 0, rows)
	for dbRows.Next() {
		var id int
		var vec pgvector.SparseVector
		if err := dbRows.Scan(&id, &vec); err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}
		if id != len(vectors) {
			return nil, fmt.Errorf("feature rows are not numbered contiguously: row %d has id %d", len(vectors), id)
		}
		vectors = append(vectors, vec)
	}
	if err := dbRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature rows: %w", err)
	}

	return sparseToCSR(vectors, cols)
}

// SaveCorpus replaces the stored corpus with store in one transaction
func (r *CorpusRepository) SaveCorpus(ctx context.Context, store *corpus.Store) error {
	state, err := json.Marshal(store.Vectorizer().State())
	if err != nil {
		return fmt.Errorf("encode vectorizer state: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `TRUNCATE books, book_features, vectorizer_state`); err != nil {
		return fmt.Errorf("clear corpus: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vectorizer_state (id, state) VALUES ($1, $2)`, currentStateID, state); err != nil {
		return fmt.Errorf("insert vectorizer state: %w", err)
	}

	features := store.Features()
	for i := 0; i < store.Len(); i++ {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO books (id, title, authors, description, thumbnail,
			                   published_year, average_rating, categories, num_pages)
			VALUES (:id, :title, :authors, :description, :thumbnail,
			        :published_year, :average_rating, :categories, :num_pages)
		`, toRow(i, store.Record(i))); err != nil {
			return fmt.Errorf("insert book %d: %w", i, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO book_features (book_id, features) VALUES ($1, $2)`,
			i, toSparseVector(features.Row(i))); err != nil {
			return fmt.Errorf("insert features %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// toSparseVector converts a feature row for pgvector; values are narrowed to float32
func toSparseVector(v tfidf.SparseVector) pgvector.SparseVector {
	elements := make(map[int32]float32, len(v.Indices))
	for k, idx := range v.Indices {
		elements[int32(idx)] = float32(v.Values[k])
	}
	return pgvector.NewSparseVectorFromMap(elements, int32(v.Dim))
}

func sparseToCSR(vectors []pgvector.SparseVector, cols int) (*tfidf.CSR, error) {
	indptr := make([]int, 1, len(vectors)+1)
	var indices []int
	var data []float64
	for i, vec := range vectors {
		if int(vec.Dimensions()) != cols {
			return nil, fmt.Errorf("feature row %d has %d dimensions, want %d: %w",
				i, vec.Dimensions(), cols, tfidf.ErrShapeMismatch)
		}
		values := vec.Values()
		for k, idx := range vec.Indices() {
			indices = append(indices, int(idx))
			data = append(data, float64(values[k]))
		}
		indptr = append(indptr, len(indices))
	}
	return tfidf.NewCSR(len(vectors), cols, indptr, indices, data)
}
