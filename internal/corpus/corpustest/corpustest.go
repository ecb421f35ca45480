// Package corpustest builds small in-memory corpora for tests.
package corpustest

import (
	"math"
	"sort"
	"testing"

	"github.com/bookshelf-recommend-api/internal/corpus"
	"github.com/bookshelf-recommend-api/internal/tfidf"
)

// Book describes one test record and the text its features are fitted on.
type Book struct {
	Title         string
	Authors       string
	Description   string
	Year          float64
	Rating        float64
	Categories    []string
	Pages         float64
	NoDescription bool
}

// Fit builds a vectorizer state with smoothed idf from docs, mirroring a
// default TfidfVectorizer fit.
func Fit(docs []string) tfidf.State {
	analyzer, err := tfidf.NewAnalyzer(true, tfidf.StripAccentsNone, tfidf.DefaultTokenPattern, 1, 1, nil)
	if err != nil {
		panic(err)
	}

	df := map[string]int{}
	for _, doc := range docs {
		seen := map[string]bool{}
		for _, term := range analyzer.Analyze(doc) {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(docs))
	for i, term := range terms {
		vocab[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return tfidf.State{Vocabulary: vocab, IDF: idf}
}

// Matrix transforms every doc and stacks the rows into a CSR matrix.
func Matrix(v *tfidf.Vectorizer, docs []string) *tfidf.CSR {
	indptr := []int{0}
	var indices []int
	var data []float64
	for _, doc := range docs {
		row := v.Transform(doc)
		indices = append(indices, row.Indices...)
		data = append(data, row.Values...)
		indptr = append(indptr, len(indices))
	}
	m, err := tfidf.NewCSR(len(docs), v.Features(), indptr, indices, data)
	if err != nil {
		panic(err)
	}
	return m
}

// NewStore fits a corpus over the books' titles and descriptions.
func NewStore(t testing.TB, books []Book) *corpus.Store {
	t.Helper()

	docs := make([]string, len(books))
	records := make([]corpus.BookRecord, len(books))
	for i, b := range books {
		docs[i] = b.Title + " " + b.Description
		records[i] = Record(b)
	}

	v, err := tfidf.NewVectorizer(Fit(docs))
	if err != nil {
		t.Fatalf("fit vectorizer: %v", err)
	}
	store, err := corpus.NewStore(records, v, Matrix(v, docs), nil)
	if err != nil {
		t.Fatalf("build store: %v", err)
	}
	return store
}

// Record converts a Book into a BookRecord; zero numeric fields become missing.
func Record(b Book) corpus.BookRecord {
	rec := corpus.BookRecord{
		Title:      strPtr(b.Title),
		Authors:    strPtr(b.Authors),
		Categories: b.Categories,
	}
	if !b.NoDescription {
		rec.Description = strPtr(b.Description)
	}
	if b.Year != 0 {
		rec.PublishedYear = &b.Year
	}
	if b.Rating != 0 {
		rec.AverageRating = &b.Rating
	}
	if b.Pages != 0 {
		rec.NumPages = &b.Pages
	}
	return rec
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Catalog is a small fixture shared across package tests.
var Catalog = []Book{
	{Title: "The Hobbit", Authors: "J.R.R. Tolkien", Description: "A hobbit goes on an adventure with dwarves and a dragon.", Year: 1937, Rating: 4.27, Categories: []string{"Fantasy"}, Pages: 310},
	{Title: "Dune", Authors: "Frank Herbert", Description: "Desert planet politics, spice and prophecy.", Year: 1965, Rating: 4.25, Categories: []string{"Science Fiction"}, Pages: 412},
	{Title: "Pride and Prejudice", Authors: "Jane Austen", Description: "Love, manners and marriage in Regency England.", Year: 1813, Rating: 4.28, Categories: []string{"Romance", "Classics"}, Pages: 279},
	{Title: "The Silmarillion", Authors: "J.R.R. Tolkien", Description: "Myths of elves and the first age of Middle-earth.", Year: 1977, Rating: 3.92, Categories: []string{"Fantasy"}, Pages: 386},
	{Title: "Neuromancer", Authors: "William Gibson", Description: "Cyberspace hackers and artificial intelligence.", Year: 1984, Rating: 3.9, Categories: []string{"Science Fiction"}, Pages: 271},
	{Title: "Emma", Authors: "Jane Austen", Description: "A matchmaker meddles in love affairs.", Year: 1815, Rating: 4.01, Pages: 474},
	{Title: "Dune Messiah", Authors: "Frank Herbert", Description: "The emperor faces conspiracy.", Year: 1969, Pages: 256},
	{Title: "The Hobbit", Authors: "J.R.R. Tolkien", Description: "Anniversary edition of the hobbit adventure.", Year: 1937, Rating: 4.3},
	{Title: "Untitled Notes", NoDescription: true},
}
