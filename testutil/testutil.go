package testutil

import (
	"math/rand"
	"slices"
	"strings"
	"sync"
	"unicode"
)

// Article is a generated record.
type Article struct {
	ID    int      `json:"id"`
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags,omitempty"`
}

// Text returns every searchable string of the article joined by spaces.
func (a Article) Text() string {
	return a.Title + " " + a.Body + " " + strings.Join(a.Tags, " ")
}

// Vocabulary is the word list generated text draws from. Several words share
// prefixes so that prefix queries hit multiple tokens.
var Vocabulary = []string{
	"alpha", "alpine", "amber", "anchor", "apple", "april",
	"badger", "banana", "band", "bandit", "basil", "beacon",
	"cable", "cactus", "camel", "candle", "canyon", "carbon",
	"delta", "denim", "desert", "dolphin", "dome", "dragon",
	"eagle", "echo", "ember", "engine", "epoch", "equal",
	"falcon", "fern", "fiber", "fox", "foxglove", "frost",
	"garden", "gecko", "glacier", "globe", "granite", "gravity",
	"harbor", "hazel", "helium", "heron", "hollow", "horizon",
	"quartz", "quick", "quiet", "quill", "quince", "quiver",
	"2024", "42", "7",
}

// SearchResult is one expected match.
type SearchResult struct {
	ID    int
	Score int
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Word returns a random vocabulary word.
func (r *RNG) Word() string {
	return Vocabulary[r.Intn(len(Vocabulary))]
}

// Sentence returns n random words, the first one capitalized.
func (r *RNG) Sentence(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = r.Word()
	}
	if n > 0 {
		w := []rune(words[0])
		w[0] = unicode.ToUpper(w[0])
		words[0] = string(w)
	}
	return strings.Join(words, " ")
}

// Articles generates n articles with ids 1..n and bodyWords words of body.
func (r *RNG) Articles(n, bodyWords int) []Article {
	out := make([]Article, n)
	for i := range out {
		var tags []string
		for range r.Intn(3) {
			tags = append(tags, r.Word())
		}
		out[i] = Article{
			ID:    i + 1,
			Title: r.Sentence(1 + r.Intn(4)),
			Body:  r.Sentence(bodyWords) + ".",
			Tags:  tags,
		}
	}
	return out
}

// Prefix returns a random vocabulary word cut to at most n bytes.
func (r *RNG) Prefix(n int) string {
	w := r.Word()
	if len(w) > n {
		w = w[:n]
	}
	return w
}

// tokens lowercases text and splits it on anything but letters and digits.
func tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ExactSearch ranks texts by brute force: the score of a text is the number
// of distinct query tokens that prefix at least one of its tokens. Results
// are ordered by score descending, then id ascending, and cut to limit.
func ExactSearch(texts map[int]string, query string, limit int) []SearchResult {
	q := tokens(query)
	slices.Sort(q)
	q = slices.Compact(q)

	var out []SearchResult
	for id, text := range texts {
		toks := tokens(text)
		score := 0
		for _, p := range q {
			if slices.ContainsFunc(toks, func(t string) bool { return strings.HasPrefix(t, p) }) {
				score++
			}
		}
		if score > 0 {
			out = append(out, SearchResult{ID: id, Score: score})
		}
	}
	slices.SortFunc(out, func(a, b SearchResult) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return a.ID - b.ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
