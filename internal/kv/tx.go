package kv

import (
	"errors"
	"sync"

	"github.com/cockroachdb/pebble"
)

// Reader is the read surface shared by both transaction kinds.
type Reader interface {
	// Get returns a copy of the value stored under key.
	Get(key []byte) ([]byte, bool, error)

	// Scan calls fn for every key in [lower, upper) in ascending order.
	// A nil upper bound scans to the end of the keyspace. key and value are
	// only valid for the duration of the call.
	Scan(lower, upper []byte, fn func(key, value []byte) error) error

	// ReadOnly reports whether the reader observes committed state only.
	ReadOnly() bool
}

// Writer extends Reader with staged mutations.
type Writer interface {
	Reader
	Set(key, value []byte) error
	Delete(key []byte) error
}

// ReadTx is a snapshot-isolated read transaction. Reads may run
// concurrently; Close waits for them to finish.
type ReadTx struct {
	m    *Manager
	snap *pebble.Snapshot

	mu   sync.RWMutex // guards done and snap release
	done bool
}

var _ Reader = (*ReadTx)(nil)

// Get implements Reader.
func (tx *ReadTx) Get(key []byte) ([]byte, bool, error) {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	if tx.done {
		return nil, false, ErrTxDone
	}
	return get(tx.snap, key)
}

// Scan implements Reader.
func (tx *ReadTx) Scan(lower, upper []byte, fn func(key, value []byte) error) error {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	if tx.done {
		return ErrTxDone
	}
	return scan(tx.snap, lower, upper, fn)
}

// ReadOnly implements Reader.
func (tx *ReadTx) ReadOnly() bool { return true }

// Close releases the snapshot. It is safe to call more than once.
func (tx *ReadTx) Close() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return nil
	}
	tx.done = true
	err := storageErr("release snapshot", tx.snap.Close())
	tx.m.active.Done()
	return err
}

// WriteTx is the single write transaction.
type WriteTx struct {
	m     *Manager
	batch *pebble.Batch
	once  sync.Once
	done  bool
}

var _ Writer = (*WriteTx)(nil)

// Get implements Reader. Staged writes of this transaction are visible.
func (tx *WriteTx) Get(key []byte) ([]byte, bool, error) {
	if tx.done {
		return nil, false, ErrTxDone
	}
	return get(tx.batch, key)
}

// Scan implements Reader. Staged writes of this transaction are visible.
func (tx *WriteTx) Scan(lower, upper []byte, fn func(key, value []byte) error) error {
	if tx.done {
		return ErrTxDone
	}
	return scan(tx.batch, lower, upper, fn)
}

// ReadOnly implements Reader.
func (tx *WriteTx) ReadOnly() bool { return false }

// Set stages a write.
func (tx *WriteTx) Set(key, value []byte) error {
	if tx.done {
		return ErrTxDone
	}
	return storageErr("set", tx.batch.Set(key, value, nil))
}

// Delete stages a deletion.
func (tx *WriteTx) Delete(key []byte) error {
	if tx.done {
		return ErrTxDone
	}
	return storageErr("delete", tx.batch.Delete(key, nil))
}

// Commit applies every staged mutation atomically.
func (tx *WriteTx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	err := storageErr("commit", tx.batch.Commit(tx.m.writeOpts))
	tx.finish()
	return err
}

// Abort discards every staged mutation.
func (tx *WriteTx) Abort() error {
	if tx.done {
		return ErrTxDone
	}
	tx.finish()
	return nil
}

// Close aborts the transaction unless it already finished.
func (tx *WriteTx) Close() error {
	if tx.done {
		return nil
	}
	return tx.Abort()
}

func (tx *WriteTx) finish() {
	tx.once.Do(func() {
		tx.done = true
		_ = tx.batch.Close()
		tx.m.writer.Release(1)
		tx.m.active.Done()
	})
}

func get(r pebble.Reader, key []byte) ([]byte, bool, error) {
	v, closer, err := r.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageErr("get", err)
	}
	defer closer.Close()
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func scan(r pebble.Reader, lower, upper []byte, fn func(key, value []byte) error) error {
	it, err := r.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
	})
	if err != nil {
		return storageErr("iterate", err)
	}
	for it.First(); it.Valid(); it.Next() {
		if err := fn(it.Key(), it.Value()); err != nil {
			_ = it.Close()
			return err
		}
	}
	if err := it.Error(); err != nil {
		_ = it.Close()
		return storageErr("iterate", err)
	}
	return storageErr("close iterator", it.Close())
}
