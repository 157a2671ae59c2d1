package kv

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"golang.org/x/sync/semaphore"
)

// Options configures a Manager.
type Options struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in an in-memory filesystem.
	InMemory bool

	// SyncWrites fsyncs the WAL on every commit.
	SyncWrites bool

	// CacheSize is the block cache size in bytes. Zero uses Pebble's default.
	CacheSize int64

	// Logger receives the manager's and Pebble's log output.
	Logger *slog.Logger
}

// Manager owns the storage engine and hands out transactions.
type Manager struct {
	db        *pebble.DB
	fs        vfs.FS
	dir       string
	writeOpts *pebble.WriteOptions
	writer    *semaphore.Weighted
	logger    *slog.Logger

	mu     sync.Mutex // Protects closed and active.Add
	closed bool
	active sync.WaitGroup
}

// Open opens (or creates) the database described by opts.
func Open(opts Options) (*Manager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fs := vfs.Default
	dir := opts.Dir
	if opts.InMemory {
		fs = vfs.NewMem()
		dir = "lexigo"
	} else if dir == "" {
		return nil, errors.New("kv: directory must not be empty")
	}

	popts := &pebble.Options{
		FS:     fs,
		Logger: pebbleLogger{logger: logger},
	}
	if opts.CacheSize > 0 {
		cache := pebble.NewCache(opts.CacheSize)
		defer cache.Unref()
		popts.Cache = cache
	}

	db, err := pebble.Open(dir, popts)
	if err != nil {
		return nil, storageErr("open", err)
	}

	writeOpts := pebble.NoSync
	if opts.SyncWrites {
		writeOpts = pebble.Sync
	}

	logger.Debug("storage opened", "dir", dir, "in_memory", opts.InMemory, "sync_writes", opts.SyncWrites)

	return &Manager{
		db:        db,
		fs:        fs,
		dir:       dir,
		writeOpts: writeOpts,
		writer:    semaphore.NewWeighted(1),
		logger:    logger,
	}, nil
}

// enter registers an in-flight transaction.
func (m *Manager) enter() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.active.Add(1)
	return nil
}

// BeginRead opens a snapshot-isolated read transaction.
func (m *Manager) BeginRead() (*ReadTx, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	return &ReadTx{m: m, snap: m.db.NewSnapshot()}, nil
}

// BeginWrite opens the write transaction, waiting while another writer is
// active. It returns ctx.Err() if the context ends first.
func (m *Manager) BeginWrite(ctx context.Context) (*WriteTx, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	if err := m.writer.Acquire(ctx, 1); err != nil {
		m.active.Done()
		return nil, err
	}
	return &WriteTx{m: m, batch: m.db.NewIndexedBatch()}, nil
}

// View runs fn inside a read transaction.
func (m *Manager) View(fn func(tx *ReadTx) error) error {
	tx, err := m.BeginRead()
	if err != nil {
		return err
	}
	defer tx.Close()
	return fn(tx)
}

// Update runs fn inside the write transaction. The transaction commits when
// fn returns nil and aborts otherwise.
func (m *Manager) Update(ctx context.Context, fn func(tx *WriteTx) error) error {
	tx, err := m.BeginWrite(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Abort()
		return err
	}
	return tx.Commit()
}

// Checkpoint writes a consistent copy of the database into dest, which must
// not exist. dest is interpreted on the manager's filesystem. The WAL is
// flushed first so unsynced commits are included.
func (m *Manager) Checkpoint(dest string) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.active.Done()
	return storageErr("checkpoint", m.db.Checkpoint(dest, pebble.WithFlushedWAL()))
}

// FS returns the filesystem the database lives on.
func (m *Manager) FS() vfs.FS { return m.fs }

// Dir returns the database directory on FS().
func (m *Manager) Dir() string { return m.dir }

// Close waits for in-flight transactions and closes the engine.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.active.Wait()
	m.logger.Debug("storage closing")
	return storageErr("close", m.db.Close())
}
