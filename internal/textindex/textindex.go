// Package textindex implements the inverted text index.
//
// Every token maps to a roaring bitmap of the internal ids whose field
// values contain it. A forward entry per document records the tokens that
// were indexed for it, so a document can be unindexed without a scan.
//
// Queries match document tokens by prefix and rank candidates by the number
// of distinct query tokens they match, breaking ties by ascending id.
package textindex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/lexigo/internal/kv"
	"github.com/hupe1980/lexigo/model"
)

// ErrCorrupt is returned when a stored posting or forward entry is unreadable.
var ErrCorrupt = errors.New("textindex: corrupt entry")

// Index reads and writes the inverted index through a transaction.
type Index struct{}

// New returns an Index.
func New() *Index { return &Index{} }

// Add indexes tokens for id. Adding a token that is already indexed for id
// is a no-op, so repeated calls with the same input are idempotent.
func (x *Index) Add(w kv.Writer, id model.DocID, tokens []string) error {
	existing, err := x.Tokens(w, id)
	if err != nil {
		return err
	}
	merged := Distinct(append(existing, tokens...))
	if len(merged) == 0 {
		return nil
	}

	for _, tok := range merged[len(existing):] {
		bm, err := loadPosting(w, tok)
		if err != nil {
			return err
		}
		bm.Add(uint32(id))
		if err := storePosting(w, tok, bm); err != nil {
			return err
		}
	}
	return w.Set(kv.Uint32Key(kv.PrefixForward, uint32(id)), encodeTokens(merged))
}

// Remove drops every posting of id and its forward entry. It returns the
// number of tokens that were unindexed.
func (x *Index) Remove(w kv.Writer, id model.DocID) (int, error) {
	tokens, err := x.Tokens(w, id)
	if err != nil || len(tokens) == 0 {
		return 0, err
	}
	for _, tok := range tokens {
		bm, err := loadPosting(w, tok)
		if err != nil {
			return 0, err
		}
		bm.Remove(uint32(id))
		if bm.IsEmpty() {
			if err := w.Delete(kv.StringKey(kv.PrefixPosting, tok)); err != nil {
				return 0, err
			}
			continue
		}
		if err := storePosting(w, tok, bm); err != nil {
			return 0, err
		}
	}
	if err := w.Delete(kv.Uint32Key(kv.PrefixForward, uint32(id))); err != nil {
		return 0, err
	}
	return len(tokens), nil
}

// Tokens returns the tokens currently indexed for id.
func (x *Index) Tokens(r kv.Reader, id model.DocID) ([]string, error) {
	v, ok, err := r.Get(kv.Uint32Key(kv.PrefixForward, uint32(id)))
	if err != nil || !ok {
		return nil, err
	}
	tokens, err := decodeTokens(v)
	if err != nil {
		return nil, fmt.Errorf("%w: forward entry of %s: %v", ErrCorrupt, id, err)
	}
	return tokens, nil
}

// Query returns at most limit hits for text. A non-positive limit or a
// query without tokens yields no hits.
func (x *Index) Query(r kv.Reader, text string, limit int) ([]model.Hit, error) {
	terms := Distinct(Tokenize(text))
	if limit <= 0 || len(terms) == 0 {
		return nil, nil
	}

	scores := make(map[model.DocID]int)
	for _, term := range terms {
		matched, err := x.prefixUnion(r, term)
		if err != nil {
			return nil, err
		}
		matched.Iterate(func(v uint32) bool {
			scores[model.DocID(v)]++
			return true
		})
	}

	hits := make([]model.Hit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, model.Hit{ID: id, Score: score})
	}
	slices.SortFunc(hits, func(a, b model.Hit) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// prefixUnion returns the ids of every document holding a token that
// starts with prefix.
func (x *Index) prefixUnion(r kv.Reader, prefix string) (*roaring.Bitmap, error) {
	lower := kv.StringKey(kv.PrefixPosting, prefix)
	var bitmaps []*roaring.Bitmap
	err := r.Scan(lower, kv.PrefixUpperBound(lower), func(key, value []byte) error {
		bm := roaring.New()
		if err := bm.UnmarshalBinary(value); err != nil {
			return fmt.Errorf("%w: posting %q: %v", ErrCorrupt, key[1:], err)
		}
		bitmaps = append(bitmaps, bm)
		return nil
	})
	if err != nil {
		return nil, err
	}
	switch len(bitmaps) {
	case 0:
		return roaring.New(), nil
	case 1:
		return bitmaps[0], nil
	}
	return roaring.FastOr(bitmaps...), nil
}

// TokenCount returns the number of distinct indexed tokens.
func (x *Index) TokenCount(r kv.Reader) (int, error) {
	lower := []byte{kv.PrefixPosting}
	n := 0
	err := r.Scan(lower, kv.PrefixUpperBound(lower), func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

func loadPosting(r kv.Reader, token string) (*roaring.Bitmap, error) {
	bm := roaring.New()
	v, ok, err := r.Get(kv.StringKey(kv.PrefixPosting, token))
	if err != nil || !ok {
		return bm, err
	}
	if err := bm.UnmarshalBinary(v); err != nil {
		return nil, fmt.Errorf("%w: posting %q: %v", ErrCorrupt, token, err)
	}
	return bm, nil
}

func storePosting(w kv.Writer, token string, bm *roaring.Bitmap) error {
	bm.RunOptimize()
	data, err := bm.ToBytes()
	if err != nil {
		return err
	}
	return w.Set(kv.StringKey(kv.PrefixPosting, token), data)
}

func encodeTokens(tokens []string) []byte {
	size := binary.MaxVarintLen32
	for _, t := range tokens {
		size += binary.MaxVarintLen32 + len(t)
	}
	out := make([]byte, 0, size)
	out = binary.AppendUvarint(out, uint64(len(tokens)))
	for _, t := range tokens {
		out = binary.AppendUvarint(out, uint64(len(t)))
		out = append(out, t...)
	}
	return out
}

func decodeTokens(data []byte) ([]string, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 || count > uint64(len(data)) {
		return nil, errors.New("bad token count")
	}
	data = data[n:]
	out := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		l, n := binary.Uvarint(data)
		if n <= 0 || l > uint64(len(data)-n) {
			return nil, errors.New("truncated token")
		}
		out = append(out, string(data[n:n+int(l)]))
		data = data[n+int(l):]
	}
	return out, nil
}
