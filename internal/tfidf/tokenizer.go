package tfidf

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultTokenPattern is the token pattern scikit-learn vectorizers are fitted with
// unless told otherwise.
const DefaultTokenPattern = `(?u)\b\w\w+\b`

// unicodeWordPattern matches what DefaultTokenPattern matches under Python's
// Unicode-aware \w. RE2's \w and \b are ASCII-only.
const unicodeWordPattern = `[\p{L}\p{N}_]{2,}`

// Accent stripping modes.
const (
	StripAccentsNone    = ""
	StripAccentsASCII   = "ascii"
	StripAccentsUnicode = "unicode"
)

// Analyzer turns raw text into the terms a vectorizer counts.
type Analyzer struct {
	lowercase    bool
	stripAccents string
	tokenRe      *regexp.Regexp
	ngramMin     int
	ngramMax     int
	stopWords    map[string]struct{}
}

// NewAnalyzer compiles the token pattern and validates the n-gram range.
func NewAnalyzer(lowercase bool, stripAccents, tokenPattern string, ngramMin, ngramMax int, stopWords []string) (*Analyzer, error) {
	switch stripAccents {
	case StripAccentsNone, StripAccentsASCII, StripAccentsUnicode:
	default:
		return nil, fmt.Errorf("unsupported strip_accents %q", stripAccents)
	}
	if ngramMin < 1 || ngramMax < ngramMin {
		return nil, fmt.Errorf("invalid ngram_range [%d, %d]", ngramMin, ngramMax)
	}

	re, err := compileTokenPattern(tokenPattern)
	if err != nil {
		return nil, err
	}

	stop := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		stop[w] = struct{}{}
	}

	return &Analyzer{
		lowercase:    lowercase,
		stripAccents: stripAccents,
		tokenRe:      re,
		ngramMin:     ngramMin,
		ngramMax:     ngramMax,
		stopWords:    stop,
	}, nil
}

func compileTokenPattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" || pattern == DefaultTokenPattern {
		return regexp.MustCompile(unicodeWordPattern), nil
	}
	re, err := regexp.Compile(strings.TrimPrefix(pattern, "(?u)"))
	if err != nil {
		return nil, fmt.Errorf("compile token pattern: %w", err)
	}
	return re, nil
}

// Analyze preprocesses, tokenizes and expands text into n-gram terms.
func (a *Analyzer) Analyze(text string) []string {
	text = a.preprocess(text)

	tokens := a.tokenRe.FindAllString(text, -1)
	if len(a.stopWords) > 0 {
		kept := tokens[:0]
		for _, tok := range tokens {
			if _, stop := a.stopWords[tok]; !stop {
				kept = append(kept, tok)
			}
		}
		tokens = kept
	}

	if a.ngramMin == 1 && a.ngramMax == 1 {
		return tokens
	}
	return ngrams(tokens, a.ngramMin, a.ngramMax)
}

func (a *Analyzer) preprocess(text string) string {
	if a.lowercase {
		// Casers are stateful; one per call keeps Analyze safe for concurrent use.
		text = cases.Lower(language.Und).String(text)
	}
	switch a.stripAccents {
	case StripAccentsUnicode:
		text = stripCombining(text)
	case StripAccentsASCII:
		text = stripNonASCII(stripCombining(text))
	}
	return text
}

func stripCombining(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

func stripNonASCII(text string) string {
	out, _, err := transform.String(runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})), text)
	if err != nil {
		return text
	}
	return out
}

func ngrams(tokens []string, minN, maxN int) []string {
	var out []string
	if minN == 1 {
		out = append(out, tokens...)
		minN = 2
	}
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}
