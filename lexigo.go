package lexigo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/lexigo/codec"
	"github.com/hupe1980/lexigo/internal/docstore"
	"github.com/hupe1980/lexigo/internal/extid"
	"github.com/hupe1980/lexigo/internal/fields"
	"github.com/hupe1980/lexigo/internal/ingest"
	"github.com/hupe1980/lexigo/internal/kv"
	"github.com/hupe1980/lexigo/internal/search"
	"github.com/hupe1980/lexigo/internal/textindex"
	"github.com/hupe1980/lexigo/model"
)

// Lexigo is an embedded document store with full-text search over records of type T.
//
// Writes are serialized; reads run concurrently against consistent snapshots.
// A Lexigo is safe for concurrent use.
type Lexigo[T any] struct {
	kv       *kv.Manager
	dict     *fields.Dictionary
	docs     *docstore.Store
	index    *textindex.Index
	pipeline *ingest.Pipeline
	engine   *search.Engine

	opts    options
	logger  *Logger
	metrics MetricsCollector

	closeOnce sync.Once
	closeErr  error
}

// FieldInfo describes one entry of the field dictionary.
type FieldInfo struct {
	ID   model.FieldID
	Name string
}

// Stats summarizes the database contents.
type Stats struct {
	Documents uint64 `json:"documents"`
	Fields    int    `json:"fields"`
	Tokens    int    `json:"tokens"`
	// NextID is the internal id the next new document will receive.
	NextID uint64 `json:"nextId"`
}

// Open opens the database held by backend.
//
// Example:
//
//	db, err := lexigo.Open[Article](lexigo.Local("./data"),
//	    lexigo.WithCompression(lexigo.CompressionZstd),
//	)
func Open[T any](backend Backend, optFns ...Option) (*Lexigo[T], error) {
	if backend == nil {
		return nil, errors.New("lexigo: backend must not be nil")
	}
	o := applyOptions(optFns)
	if err := o.validate(); err != nil {
		return nil, err
	}

	kvOpts := backend.kvOptions()
	kvOpts.SyncWrites = o.syncWrites
	kvOpts.CacheSize = o.cacheSize
	kvOpts.Logger = o.logger.WithComponent("kv").Logger

	m, err := kv.Open(kvOpts)
	if err != nil {
		return nil, translateError(err)
	}

	dict := fields.New(o.fieldCacheSize)
	docs := docstore.New(o.compression)
	index := textindex.New()

	db := &Lexigo[T]{
		kv:    m,
		dict:  dict,
		docs:  docs,
		index: index,
		pipeline: ingest.New(m, dict, docs, index, ingest.Config{
			Codec:      o.codec,
			PrimaryKey: o.primaryKey,
			Searchable: o.searchable,
			Logger:     o.logger.WithComponent("ingest").Logger,
			Observer:   o.observer,
		}),
		engine:  search.New(dict, docs, index, o.logger.WithComponent("search").Logger),
		opts:    o,
		logger:  o.logger,
		metrics: o.metricsCollector,
	}

	o.logger.Info("database opened",
		"primary_key", o.primaryKey,
		"compression", o.compression.String(),
	)
	return db, nil
}

func (o options) validate() error {
	if o.primaryKey == "" {
		return errors.New("lexigo: primary key must not be empty")
	}
	if o.defaultLimit <= 0 {
		return fmt.Errorf("%w: default limit %d", ErrInvalidLimit, o.defaultLimit)
	}
	if o.maxLimit < 0 || (o.maxLimit > 0 && o.defaultLimit > o.maxLimit) {
		return fmt.Errorf("%w: max limit %d with default %d", ErrInvalidLimit, o.maxLimit, o.defaultLimit)
	}
	if o.compression > CompressionZstd {
		return fmt.Errorf("lexigo: unknown compression %s", o.compression)
	}
	return nil
}

// AddDocument stores rec and indexes its fields. It fails with
// ErrDuplicateExternalID if rec's external id is already registered.
func (db *Lexigo[T]) AddDocument(ctx context.Context, rec T) (model.DocID, error) {
	start := time.Now()

	res, err := db.pipeline.Add(ctx, rec)
	err = translateError(err)

	db.metrics.RecordAdd(time.Since(start), err)
	db.logger.LogAdd(ctx, res.External, res.ID, err)

	if err != nil {
		return 0, err
	}
	return res.ID, nil
}

// AddDocuments adds every record in its own transaction. A failing record
// does not affect the others.
func (db *Lexigo[T]) AddDocuments(ctx context.Context, recs []T) BatchResult {
	start := time.Now()

	result := BatchResult{
		IDs:    make([]model.DocID, len(recs)),
		Errors: make([]error, len(recs)),
	}
	for i, rec := range recs {
		res, err := db.pipeline.Add(ctx, rec)
		if err != nil {
			result.Errors[i] = translateError(err)
			continue
		}
		result.IDs[i] = res.ID
	}

	failed := result.Failed()
	db.metrics.RecordBatchAdd(len(recs), failed, time.Since(start))
	db.logger.LogBatchAdd(ctx, len(recs), failed)

	return result
}

// UpsertDocument adds rec, or replaces the document registered under its
// external id. A replaced document keeps its internal id and is fully reindexed.
func (db *Lexigo[T]) UpsertDocument(ctx context.Context, rec T) (model.DocID, error) {
	start := time.Now()

	res, err := db.pipeline.Upsert(ctx, rec)
	err = translateError(err)

	db.metrics.RecordUpsert(time.Since(start), err)
	db.logger.LogUpsert(ctx, res.External, res.ID, res.Created, err)

	if err != nil {
		return 0, err
	}
	return res.ID, nil
}

// DeleteDocument removes the document registered under external together
// with its postings. It reports whether a document existed; an id that could
// never be registered reports false. The freed internal id is never reassigned.
func (db *Lexigo[T]) DeleteDocument(ctx context.Context, external any) (bool, error) {
	start := time.Now()

	ext, err := extid.FromValue(external)
	var deleted bool
	switch {
	case errors.Is(err, extid.ErrInvalid):
		err = nil
	case err == nil:
		deleted, err = db.pipeline.Delete(ctx, ext)
	}
	err = translateError(err)

	db.metrics.RecordDelete(time.Since(start), err)
	db.logger.LogDelete(ctx, ext, deleted, err)

	return deleted, err
}

// Search starts a query for documents containing tokens with the given prefixes.
//
// Example:
//
//	results, err := db.Search("quick fox").Limit(5).Execute(ctx)
func (db *Lexigo[T]) Search(query string) *SearchBuilder[T] {
	return newSearchBuilder(db, nil, query)
}

// GetByExternalID returns the document registered under external, which may
// be a non-negative integer or an id string. A missing document is not an
// error, and neither is an id that could never be registered.
func (db *Lexigo[T]) GetByExternalID(ctx context.Context, external any) (T, bool, error) {
	var (
		rec T
		ok  bool
	)
	err := db.read(ctx, func(r kv.Reader) (found bool, err error) {
		rec, ok, err = db.getByExternal(r, external)
		return ok, err
	})
	return rec, ok, err
}

// GetByInternalID returns the document stored under id. A never-assigned or
// deleted id is reported as absent, not as an error.
func (db *Lexigo[T]) GetByInternalID(ctx context.Context, id model.DocID) (T, bool, error) {
	var (
		rec T
		ok  bool
	)
	err := db.read(ctx, func(r kv.Reader) (found bool, err error) {
		rec, ok, err = db.getByInternal(r, id)
		return ok, err
	})
	return rec, ok, err
}

// Fields lists the field dictionary in id order.
func (db *Lexigo[T]) Fields(ctx context.Context) ([]FieldInfo, error) {
	var out []FieldInfo
	err := db.view(ctx, func(r kv.Reader) (err error) {
		out, err = db.fieldInfos(r)
		return err
	})
	return out, err
}

// Stats reports document, field and token counts.
func (db *Lexigo[T]) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := db.view(ctx, func(r kv.Reader) (err error) {
		st, err = db.stats(r)
		return err
	})
	return st, err
}

// Snapshot opens a long-lived read transaction. Every read through it sees
// the database as of this call. Close it when done.
func (db *Lexigo[T]) Snapshot(ctx context.Context) (*Snapshot[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx, err := db.kv.BeginRead()
	if err != nil {
		return nil, translateError(err)
	}
	return &Snapshot[T]{db: db, tx: tx}, nil
}

// read runs a lookup and records it.
func (db *Lexigo[T]) read(ctx context.Context, fn func(r kv.Reader) (bool, error)) error {
	start := time.Now()
	var found bool
	err := db.view(ctx, func(r kv.Reader) (err error) {
		found, err = fn(r)
		return err
	})
	db.metrics.RecordGet(found, time.Since(start), err)
	return err
}

func (db *Lexigo[T]) view(ctx context.Context, fn func(r kv.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := db.kv.View(func(tx *kv.ReadTx) error {
		return fn(tx)
	})
	return translateError(err)
}

func (db *Lexigo[T]) getByExternal(r kv.Reader, external any) (T, bool, error) {
	var zero T
	ext, err := extid.FromValue(external)
	if errors.Is(err, extid.ErrInvalid) {
		// Never registrable, so never present.
		return zero, false, nil
	}
	if err != nil {
		return zero, false, translateError(err)
	}
	m, ok, err := db.engine.ByExternal(r, ext)
	if err != nil || !ok {
		return zero, false, translateError(err)
	}
	rec, err := db.decode(m)
	if err != nil {
		return zero, false, err
	}
	return rec, true, nil
}

func (db *Lexigo[T]) getByInternal(r kv.Reader, id model.DocID) (T, bool, error) {
	var zero T
	m, ok, err := db.engine.ByInternal(r, id)
	if err != nil || !ok {
		return zero, false, translateError(err)
	}
	rec, err := db.decode(m)
	if err != nil {
		return zero, false, err
	}
	return rec, true, nil
}

func (db *Lexigo[T]) fieldInfos(r kv.Reader) ([]FieldInfo, error) {
	all, err := db.dict.All(r)
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]FieldInfo, len(all))
	for i, f := range all {
		out[i] = FieldInfo{ID: f.ID, Name: f.Name}
	}
	return out, nil
}

func (db *Lexigo[T]) stats(r kv.Reader) (Stats, error) {
	var (
		st  Stats
		err error
	)
	if st.Documents, err = db.docs.Count(r); err != nil {
		return Stats{}, translateError(err)
	}
	if st.Fields, err = db.dict.Len(r); err != nil {
		return Stats{}, translateError(err)
	}
	if st.Tokens, err = db.index.TokenCount(r); err != nil {
		return Stats{}, translateError(err)
	}
	if st.NextID, err = extid.Next(r); err != nil {
		return Stats{}, translateError(err)
	}
	return st, nil
}

func (db *Lexigo[T]) decode(m search.Match) (T, error) {
	var rec T
	if err := codec.DecodeFields(db.opts.codec, m.Fields, &rec); err != nil {
		return rec, fmt.Errorf("%w: %s: %w", ErrDecode, m.ID, err)
	}
	return rec, nil
}
