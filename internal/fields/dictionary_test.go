package fields

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/lexigo/internal/kv"
	"github.com/hupe1980/lexigo/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *kv.Manager {
	t.Helper()
	m, err := kv.Open(kv.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestDictionary_IDFor(t *testing.T) {
	m := openMem(t)
	d := New(0)

	err := m.Update(context.Background(), func(tx *kv.WriteTx) error {
		a, created, err := d.IDFor(tx, "title")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, model.FieldID(0), a)

		b, created, err := d.IDFor(tx, "body")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, model.FieldID(1), b)

		again, created, err := d.IDFor(tx, "title")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, a, again)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, m.View(func(tx *kv.ReadTx) error {
		name, err := d.NameFor(tx, 1)
		require.NoError(t, err)
		assert.Equal(t, "body", name)

		all, err := d.All(tx)
		require.NoError(t, err)
		assert.Equal(t, []Field{{ID: 0, Name: "title"}, {ID: 1, Name: "body"}}, all)

		n, err := d.Len(tx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		return nil
	}))
}

func TestDictionary_AbortDoesNotBurnIDs(t *testing.T) {
	m := openMem(t)
	d := New(0)
	ctx := context.Background()

	boom := errors.New("boom")
	err := m.Update(ctx, func(tx *kv.WriteTx) error {
		_, _, err := d.IDFor(tx, "discarded")
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, m.Update(ctx, func(tx *kv.WriteTx) error {
		id, created, err := d.IDFor(tx, "kept")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, model.FieldID(0), id)
		return nil
	}))

	require.NoError(t, m.View(func(tx *kv.ReadTx) error {
		_, ok, err := d.Lookup(tx, "discarded")
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	}))
}

func TestDictionary_UnknownID(t *testing.T) {
	m := openMem(t)
	d := New(0)

	require.NoError(t, m.View(func(tx *kv.ReadTx) error {
		_, err := d.NameFor(tx, 42)
		assert.ErrorIs(t, err, ErrUnknownFieldID)
		return nil
	}))
}

func TestDictionary_EmptyName(t *testing.T) {
	m := openMem(t)
	d := New(0)

	err := m.Update(context.Background(), func(tx *kv.WriteTx) error {
		_, _, err := d.IDFor(tx, "")
		return err
	})
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestDictionary_CacheIgnoresUncommitted(t *testing.T) {
	m := openMem(t)
	d := New(8)
	ctx := context.Background()

	// Resolve inside a transaction that is later aborted; the name must not
	// leak into the committed cache.
	_ = m.Update(ctx, func(tx *kv.WriteTx) error {
		id, _, err := d.IDFor(tx, "ghost")
		require.NoError(t, err)
		name, err := d.NameFor(tx, id)
		require.NoError(t, err)
		assert.Equal(t, "ghost", name)
		return errors.New("abort")
	})

	require.NoError(t, m.View(func(tx *kv.ReadTx) error {
		_, err := d.NameFor(tx, 0)
		assert.ErrorIs(t, err, ErrUnknownFieldID)
		return nil
	}))
}
