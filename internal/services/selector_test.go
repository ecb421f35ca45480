package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func reversePerm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = n - 1 - i
	}
	return out
}

func rows(hits []Hit) []int {
	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.Row
	}
	return out
}

func TestSelect_Fallback(t *testing.T) {
	sel := Select(make([]float64, 9), DefaultPolicy(), reversePerm)

	assert.Equal(t, SelectionFallback, sel.Kind)
	assert.Equal(t, []int{8, 7, 6, 5, 4}, rows(sel.Hits))
	for _, h := range sel.Hits {
		assert.Zero(t, h.Score)
	}
}

func TestSelect_FallbackSmallCorpus(t *testing.T) {
	sel := Select([]float64{0, 0, 0}, DefaultPolicy(), nil)

	assert.Equal(t, SelectionFallback, sel.Kind)
	assert.ElementsMatch(t, []int{0, 1, 2}, rows(sel.Hits))
}

func TestSelect_FallbackDistinctRows(t *testing.T) {
	for i := 0; i < 50; i++ {
		sel := Select(make([]float64, 20), DefaultPolicy(), nil)
		seen := map[int]bool{}
		for _, h := range sel.Hits {
			assert.False(t, seen[h.Row], "row %d sampled twice", h.Row)
			seen[h.Row] = true
		}
		assert.Len(t, sel.Hits, 5)
	}
}

func TestSelect_NoScores(t *testing.T) {
	sel := Select(nil, DefaultPolicy(), nil)
	assert.Equal(t, SelectionFallback, sel.Kind)
	assert.Empty(t, sel.Hits)
}

func TestSelect_RankedStableOrder(t *testing.T) {
	scores := []float64{0.5, 0.9, 0.5, 0.05, 0.9, 0.1}
	sel := Select(scores, DefaultPolicy(), nil)

	assert.Equal(t, SelectionRanked, sel.Kind)
	assert.Equal(t, []int{1, 4, 0, 2}, rows(sel.Hits))
	assert.Equal(t, 0.9, sel.Hits[0].Score)
}

func TestSelect_RankedCap(t *testing.T) {
	scores := make([]float64, 30)
	for i := range scores {
		scores[i] = 0.2 + float64(i)/100
	}
	sel := Select(scores, DefaultPolicy(), nil)

	assert.Len(t, sel.Hits, 12)
	assert.Equal(t, 29, sel.Hits[0].Row)
	assert.Equal(t, 18, sel.Hits[11].Row)
}

func TestSelect_RankedMayBeEmpty(t *testing.T) {
	sel := Select([]float64{0.05, 0.1, 0}, DefaultPolicy(), reversePerm)

	assert.Equal(t, SelectionRanked, sel.Kind)
	assert.Empty(t, sel.Hits)
	assert.NotNil(t, sel.Hits)
}

func TestSelectionKind_String(t *testing.T) {
	assert.Equal(t, "fallback", SelectionFallback.String())
	assert.Equal(t, "ranked", SelectionRanked.String())
}
