// Package tfidf reproduces the transform half of a fitted TF-IDF vectorizer and the
// sparse matrix operations needed to score a query against a fixed corpus.
package tfidf

import (
	"fmt"
	"math"
	"sort"
)

// Norm values.
const (
	NormL2   = "l2"
	NormL1   = "l1"
	NormNone = ""
)

// State is the serialized form of a fitted vectorizer. Pointer fields fall back to
// scikit-learn's TfidfVectorizer defaults when absent.
type State struct {
	Vocabulary   map[string]int `json:"vocabulary"`
	IDF          []float64      `json:"idf"`
	Lowercase    *bool          `json:"lowercase,omitempty"`
	StripAccents *string        `json:"strip_accents,omitempty"`
	TokenPattern *string        `json:"token_pattern,omitempty"`
	NgramRange   []int          `json:"ngram_range,omitempty"`
	StopWords    []string       `json:"stop_words,omitempty"`
	Norm         *string        `json:"norm,omitempty"`
	UseIDF       *bool          `json:"use_idf,omitempty"`
	SublinearTF  bool           `json:"sublinear_tf,omitempty"`
	Binary       bool           `json:"binary,omitempty"`
}

// Vectorizer projects text into the fitted feature space. Safe for concurrent use.
type Vectorizer struct {
	state       State
	analyzer    *Analyzer
	vocabulary  map[string]int
	idf         []float64
	useIDF      bool
	sublinearTF bool
	binary      bool
	norm        string
}

// NewVectorizer validates a fitted state and builds a Vectorizer from it.
func NewVectorizer(st State) (*Vectorizer, error) {
	if len(st.Vocabulary) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}

	n := len(st.Vocabulary)
	seen := make([]bool, n)
	for term, col := range st.Vocabulary {
		if col < 0 || col >= n {
			return nil, fmt.Errorf("term %q maps to column %d outside [0, %d)", term, col, n)
		}
		if seen[col] {
			return nil, fmt.Errorf("column %d assigned to more than one term", col)
		}
		seen[col] = true
	}

	useIDF := boolOr(st.UseIDF, true)
	if useIDF && len(st.IDF) != n {
		return nil, fmt.Errorf("idf has %d weights for %d terms: %w", len(st.IDF), n, ErrShapeMismatch)
	}

	norm := stringOr(st.Norm, NormL2)
	switch norm {
	case NormL2, NormL1, NormNone:
	default:
		return nil, fmt.Errorf("unsupported norm %q", norm)
	}

	ngramMin, ngramMax := 1, 1
	if len(st.NgramRange) == 2 {
		ngramMin, ngramMax = st.NgramRange[0], st.NgramRange[1]
	} else if len(st.NgramRange) != 0 {
		return nil, fmt.Errorf("ngram_range must have two entries, got %d", len(st.NgramRange))
	}

	analyzer, err := NewAnalyzer(
		boolOr(st.Lowercase, true),
		stringOr(st.StripAccents, StripAccentsNone),
		stringOr(st.TokenPattern, DefaultTokenPattern),
		ngramMin, ngramMax,
		st.StopWords,
	)
	if err != nil {
		return nil, err
	}

	return &Vectorizer{
		state:       st,
		analyzer:    analyzer,
		vocabulary:  st.Vocabulary,
		idf:         st.IDF,
		useIDF:      useIDF,
		sublinearTF: st.SublinearTF,
		binary:      st.Binary,
		norm:        norm,
	}, nil
}

// Features returns the dimensionality of the feature space.
func (v *Vectorizer) Features() int {
	return len(v.vocabulary)
}

// State returns the fitted state the vectorizer was built from.
func (v *Vectorizer) State() State {
	return v.state
}

// Transform vectorizes text. Terms outside the vocabulary are dropped.
func (v *Vectorizer) Transform(text string) SparseVector {
	counts := make(map[int]float64)
	for _, term := range v.analyzer.Analyze(text) {
		if col, ok := v.vocabulary[term]; ok {
			counts[col]++
		}
	}

	vec := SparseVector{
		Dim:     len(v.vocabulary),
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for col := range counts {
		vec.Indices = append(vec.Indices, col)
	}
	sort.Ints(vec.Indices)

	for _, col := range vec.Indices {
		tf := counts[col]
		switch {
		case v.binary:
			tf = 1
		case v.sublinearTF:
			tf = 1 + math.Log(tf)
		}
		if v.useIDF {
			tf *= v.idf[col]
		}
		vec.Values = append(vec.Values, tf)
	}

	normalize(vec.Values, v.norm)
	return vec
}

func normalize(values []float64, norm string) {
	var total float64
	switch norm {
	case NormL2:
		for _, x := range values {
			total += x * x
		}
		total = math.Sqrt(total)
	case NormL1:
		for _, x := range values {
			total += math.Abs(x)
		}
	default:
		return
	}
	if total == 0 {
		return
	}
	for i := range values {
		values[i] /= total
	}
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func stringOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
