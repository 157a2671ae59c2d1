package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArticles_Deterministic(t *testing.T) {
	a := NewRNG(4711).Articles(20, 8)
	b := NewRNG(4711).Articles(20, 8)

	assert.Equal(t, a, b)
	assert.Len(t, a, 20)
	assert.Equal(t, 1, a[0].ID)
	assert.Equal(t, 20, a[19].ID)
}

func TestRNG_Reset(t *testing.T) {
	rng := NewRNG(7)
	first := rng.Sentence(5)
	rng.Reset()

	assert.Equal(t, first, rng.Sentence(5))
	assert.Equal(t, int64(7), rng.Seed())
}

func TestExactSearch(t *testing.T) {
	texts := map[int]string{
		1: "Quick fox",
		2: "quiet harbor",
		3: "Fox-glove, quick!",
		4: "nothing here",
	}

	got := ExactSearch(texts, "qui fox", 10)
	assert.Equal(t, []SearchResult{{1, 2}, {3, 2}, {2, 1}}, got)

	assert.Equal(t, []SearchResult{{1, 2}}, ExactSearch(texts, "qui fox", 1))
	assert.Empty(t, ExactSearch(texts, "zzz", 10))
	assert.Empty(t, ExactSearch(texts, "", 10))
}
