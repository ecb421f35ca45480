package artifacts

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/bookshelf-recommend-api/internal/corpus"
	"github.com/bookshelf-recommend-api/internal/tfidf"
	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

const vectorizerSchema = `{
  "type": "object",
  "required": ["vocabulary"],
  "properties": {
    "vocabulary":    {"type": "object", "minProperties": 1, "additionalProperties": {"type": "integer", "minimum": 0}},
    "idf":           {"type": "array", "items": {"type": "number"}},
    "lowercase":     {"type": "boolean"},
    "strip_accents": {"enum": ["ascii", "unicode", "", null]},
    "token_pattern": {"type": "string"},
    "ngram_range":   {"type": "array", "items": {"type": "integer", "minimum": 1}, "minItems": 2, "maxItems": 2},
    "stop_words":    {"type": ["array", "null"], "items": {"type": "string"}},
    "norm":          {"enum": ["l1", "l2", ""]},
    "use_idf":       {"type": "boolean"},
    "sublinear_tf":  {"type": "boolean"},
    "binary":        {"type": "boolean"}
  }
}`

var vectorizerSchemaLoader = gojsonschema.NewStringLoader(vectorizerSchema)

// ErrInvalidArtifact wraps every structural problem found while decoding.
var ErrInvalidArtifact = errors.New("invalid artifact")

// DecodeVectorizer validates and decodes fitted vectorizer state.
func DecodeVectorizer(data []byte) (*tfidf.Vectorizer, error) {
	result, err := gojsonschema.Validate(vectorizerSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: vectorizer: %v", ErrInvalidArtifact, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: vectorizer: %s", ErrInvalidArtifact, strings.Join(msgs, "; "))
	}

	var st tfidf.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: vectorizer: %v", ErrInvalidArtifact, err)
	}
	v, err := tfidf.NewVectorizer(st)
	if err != nil {
		return nil, fmt.Errorf("%w: vectorizer: %v", ErrInvalidArtifact, err)
	}
	return v, nil
}

type csrDocument struct {
	Shape   []int     `json:"shape"`
	Indptr  []int     `json:"indptr"`
	Indices []int     `json:"indices"`
	Data    []float64 `json:"data"`
}

// DecodeMatrix accepts either a CSR document {"shape","indptr","indices","data"}
// or a dense array of rows, and returns it in CSR form.
func DecodeMatrix(data []byte) (*tfidf.CSR, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var dense [][]float64
		if err := json.Unmarshal(trimmed, &dense); err != nil {
			return nil, fmt.Errorf("%w: matrix: %v", ErrInvalidArtifact, err)
		}
		return denseToCSR(dense)
	}

	var doc csrDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: matrix: %v", ErrInvalidArtifact, err)
	}
	if len(doc.Shape) != 2 {
		return nil, fmt.Errorf("%w: matrix: shape must have two entries", ErrInvalidArtifact)
	}
	m, err := tfidf.NewCSR(doc.Shape[0], doc.Shape[1], doc.Indptr, doc.Indices, doc.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: matrix: %v", ErrInvalidArtifact, err)
	}
	return m, nil
}

func denseToCSR(dense [][]float64) (*tfidf.CSR, error) {
	rows := len(dense)
	cols := 0
	if rows > 0 {
		cols = len(dense[0])
	}

	indptr := make([]int, 1, rows+1)
	var indices []int
	var values []float64
	for i, row := range dense {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: matrix: row %d has %d columns, want %d", ErrInvalidArtifact, i, len(row), cols)
		}
		for j, x := range row {
			if x != 0 {
				indices = append(indices, j)
				values = append(values, x)
			}
		}
		indptr = append(indptr, len(indices))
	}
	return tfidf.NewCSR(rows, cols, indptr, indices, values)
}

// Metadata columns read from the tabular artifact. Other columns are ignored.
const (
	colTitle         = "title"
	colAuthors       = "authors"
	colDescription   = "description"
	colThumbnail     = "thumbnail"
	colPublishedYear = "published_year"
	colAverageRating = "average_rating"
	colCategories    = "categories"
	colNumPages      = "num_pages"
)

// DecodeMetadata reads the book table. Empty cells become missing fields.
func DecodeMetadata(r io.Reader) ([]corpus.BookRecord, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: metadata header: %v", ErrInvalidArtifact, err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))] = i
	}
	if _, ok := index[colTitle]; !ok {
		return nil, fmt.Errorf("%w: metadata: missing %q column", ErrInvalidArtifact, colTitle)
	}

	var records []corpus.BookRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: metadata line %d: %v", ErrInvalidArtifact, line, err)
		}

		cell := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		records = append(records, corpus.BookRecord{
			Title:         optString(cell(colTitle)),
			Authors:       optString(cell(colAuthors)),
			Description:   optString(cell(colDescription)),
			Thumbnail:     optString(cell(colThumbnail)),
			PublishedYear: optFloat(cell(colPublishedYear)),
			AverageRating: optFloat(cell(colAverageRating)),
			Categories:    ParseCategories(cell(colCategories)),
			NumPages:      optFloat(cell(colNumPages)),
		})
	}
	return records, nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != f {
		return nil
	}
	return &f
}

var quotedItem = regexp.MustCompile(`'([^']*)'|"([^"]*)"`)

// ParseCategories reads a list-literal cell such as "['Fiction', 'Drama']",
// a comma separated cell, or a single category.
func ParseCategories(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var parts []string
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		for _, m := range quotedItem.FindAllStringSubmatch(s, -1) {
			parts = append(parts, m[1]+m[2])
		}
	} else {
		parts = strings.Split(s, ",")
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
