package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/lexigo/codec"
	"github.com/hupe1980/lexigo/internal/docstore"
	"github.com/hupe1980/lexigo/internal/extid"
	"github.com/hupe1980/lexigo/internal/fields"
	"github.com/hupe1980/lexigo/internal/kv"
	"github.com/hupe1980/lexigo/internal/textindex"
	"github.com/hupe1980/lexigo/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Extra string `json:"extra,omitempty"`
}

type harness struct {
	kv    *kv.Manager
	dict  *fields.Dictionary
	docs  *docstore.Store
	index *textindex.Index
	p     *Pipeline
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	m, err := kv.Open(kv.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	h := &harness{
		kv:    m,
		dict:  fields.New(0),
		docs:  docstore.New(docstore.CompressionNone),
		index: textindex.New(),
	}
	h.p = New(m, h.dict, h.docs, h.index, cfg)
	return h
}

func (h *harness) query(t *testing.T, text string) []model.DocID {
	t.Helper()
	var out []model.DocID
	require.NoError(t, h.kv.View(func(tx *kv.ReadTx) error {
		hits, err := h.index.Query(tx, text, 100)
		for _, hit := range hits {
			out = append(out, hit.ID)
		}
		return err
	}))
	return out
}

func TestPipeline_AddStateSequence(t *testing.T) {
	var states []State
	h := newHarness(t, Config{Observer: func(_ model.ExternalID, s State) { states = append(states, s) }})

	res, err := h.p.Add(context.Background(), record{ID: 100, Name: "Document 1"})
	require.NoError(t, err)
	assert.Equal(t, model.DocID(0), res.ID)
	assert.Equal(t, model.ExternalID("100"), res.External)
	assert.True(t, res.Created)
	assert.Equal(t, 2, res.Fields)

	assert.Equal(t, []State{Start, FieldsResolved, IDAssigned, Stored, Indexed, Committed}, states)
	assert.Equal(t, []model.DocID{0}, h.query(t, "docu"))
}

func TestPipeline_DuplicateAbortsAtomically(t *testing.T) {
	var last State
	h := newHarness(t, Config{Observer: func(_ model.ExternalID, s State) { last = s }})
	ctx := context.Background()

	_, err := h.p.Add(ctx, record{ID: 100, Name: "first"})
	require.NoError(t, err)

	_, err = h.p.Add(ctx, record{ID: 100, Name: "second", Extra: "brandnew"})
	require.ErrorIs(t, err, extid.ErrDuplicate)
	assert.Equal(t, Aborted, last)

	var ingestErr *Error
	require.True(t, errors.As(err, &ingestErr))
	assert.Equal(t, FieldsResolved, ingestErr.State)

	require.NoError(t, h.kv.View(func(tx *kv.ReadTx) error {
		_, ok, err := h.dict.Lookup(tx, "extra")
		require.NoError(t, err)
		assert.False(t, ok, "fields from an aborted insert must not persist")

		next, err := extid.Next(tx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), next)
		return nil
	}))
	assert.Empty(t, h.query(t, "second"))
	assert.Empty(t, h.query(t, "brandnew"))
	assert.Equal(t, []model.DocID{0}, h.query(t, "first"))
}

func TestPipeline_CodecAndIDErrors(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	_, err := h.p.Add(ctx, "not an object")
	assert.ErrorIs(t, err, ErrCodec)
	assert.ErrorIs(t, err, codec.ErrNotObject)

	_, err = h.p.Add(ctx, map[string]any{"name": "no id"})
	assert.ErrorIs(t, err, ErrMissingExternalID)

	_, err = h.p.Add(ctx, map[string]any{"id": -3})
	assert.ErrorIs(t, err, extid.ErrInvalid)

	var ingestErr *Error
	require.True(t, errors.As(err, &ingestErr))
	assert.Equal(t, Start, ingestErr.State)
}

func TestPipeline_Upsert(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	res, err := h.p.Upsert(ctx, record{ID: 7, Name: "old title"})
	require.NoError(t, err)
	assert.True(t, res.Created)

	res2, err := h.p.Upsert(ctx, record{ID: 7, Name: "new heading"})
	require.NoError(t, err)
	assert.False(t, res2.Created)
	assert.Equal(t, res.ID, res2.ID)

	assert.Empty(t, h.query(t, "old"))
	assert.Empty(t, h.query(t, "title"))
	assert.Equal(t, []model.DocID{res.ID}, h.query(t, "heading"))

	require.NoError(t, h.kv.View(func(tx *kv.ReadTx) error {
		n, err := h.docs.Count(tx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), n)
		return nil
	}))
}

func TestPipeline_Delete(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	_, err := h.p.Add(ctx, record{ID: 1, Name: "gone soon"})
	require.NoError(t, err)

	ok, err := h.p.Delete(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.p.Delete(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Empty(t, h.query(t, "gone"))

	res, err := h.p.Add(ctx, record{ID: 1, Name: "back again"})
	require.NoError(t, err)
	assert.Equal(t, model.DocID(1), res.ID, "internal ids are never reused")
}

func TestPipeline_SearchableFields(t *testing.T) {
	h := newHarness(t, Config{Searchable: []string{"name"}})

	_, err := h.p.Add(context.Background(), record{ID: 1, Name: "visible", Extra: "hidden"})
	require.NoError(t, err)

	assert.Equal(t, []model.DocID{0}, h.query(t, "visible"))
	assert.Empty(t, h.query(t, "hidden"))
	assert.Empty(t, h.query(t, "1"))
}

func TestPipeline_CustomPrimaryKey(t *testing.T) {
	h := newHarness(t, Config{PrimaryKey: "sku"})

	res, err := h.p.Add(context.Background(), map[string]any{"sku": "AB-12", "name": "widget"})
	require.NoError(t, err)
	assert.Equal(t, model.ExternalID("AB-12"), res.External)
	assert.Equal(t, "sku", h.p.PrimaryKey())
}

func TestPipeline_CanceledContext(t *testing.T) {
	h := newHarness(t, Config{})

	tx, err := h.kv.BeginWrite(context.Background())
	require.NoError(t, err)
	defer tx.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.p.Add(ctx, record{ID: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "id-assigned", IDAssigned.String())
	assert.Equal(t, "aborted", Aborted.String())
	assert.Equal(t, "State(42)", State(42).String())
}
