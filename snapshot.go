package lexigo

import (
	"context"

	"github.com/hupe1980/lexigo/internal/kv"
	"github.com/hupe1980/lexigo/model"
)

// Snapshot is a read-only view of the database at a fixed point in time.
// Writes committed after the snapshot was taken are not visible through it.
//
// A Snapshot is safe for concurrent use. Close must be called to release it;
// Close on the parent database waits for open snapshots.
type Snapshot[T any] struct {
	db *Lexigo[T]
	tx *kv.ReadTx
}

// Search starts a query against the snapshot.
func (s *Snapshot[T]) Search(query string) *SearchBuilder[T] {
	return newSearchBuilder(s.db, s.tx, query)
}

// GetByExternalID is like Lexigo.GetByExternalID.
func (s *Snapshot[T]) GetByExternalID(ctx context.Context, external any) (T, bool, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, false, err
	}
	return s.db.getByExternal(s.tx, external)
}

// GetByInternalID is like Lexigo.GetByInternalID.
func (s *Snapshot[T]) GetByInternalID(ctx context.Context, id model.DocID) (T, bool, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, false, err
	}
	return s.db.getByInternal(s.tx, id)
}

// Fields is like Lexigo.Fields.
func (s *Snapshot[T]) Fields(ctx context.Context) ([]FieldInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.db.fieldInfos(s.tx)
}

// Stats is like Lexigo.Stats.
func (s *Snapshot[T]) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	return s.db.stats(s.tx)
}

// Close releases the snapshot. It is safe to call more than once.
func (s *Snapshot[T]) Close() error {
	return translateError(s.tx.Close())
}
