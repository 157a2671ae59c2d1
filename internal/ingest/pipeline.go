// Package ingest runs the atomic write path for documents.
//
// Each operation executes in a single write transaction: the field
// dictionary, the external id map, the document store and the text index
// are all updated in the same batch, and either every effect commits or
// none does.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hupe1980/lexigo/codec"
	"github.com/hupe1980/lexigo/internal/docstore"
	"github.com/hupe1980/lexigo/internal/extid"
	"github.com/hupe1980/lexigo/internal/fields"
	"github.com/hupe1980/lexigo/internal/kv"
	"github.com/hupe1980/lexigo/internal/textindex"
	"github.com/hupe1980/lexigo/model"
)

var (
	// ErrCodec is returned when a record cannot be converted to fields.
	ErrCodec = errors.New("ingest: record encoding failed")

	// ErrMissingExternalID is returned when a record lacks its primary-key field.
	ErrMissingExternalID = errors.New("ingest: primary key field absent")
)

// DefaultPrimaryKey is the field holding a record's external id.
const DefaultPrimaryKey = "id"

// Config configures a Pipeline.
type Config struct {
	Codec      codec.Codec
	PrimaryKey string

	// Searchable limits text indexing to the named fields. Empty indexes
	// every field.
	Searchable []string

	Logger *slog.Logger

	// Observer, if set, is called on every state transition.
	Observer func(ext model.ExternalID, s State)
}

// Result describes a completed ingestion.
type Result struct {
	ID       model.DocID
	External model.ExternalID
	// Created is false when an existing document was replaced.
	Created bool
	Fields  int
	Tokens  int
}

// Pipeline orchestrates the components touched by a write.
type Pipeline struct {
	kv         *kv.Manager
	dict       *fields.Dictionary
	docs       *docstore.Store
	index      *textindex.Index
	codec      codec.Codec
	primaryKey string
	searchable map[string]struct{}
	logger     *slog.Logger
	observer   func(model.ExternalID, State)
}

// New creates a Pipeline.
func New(m *kv.Manager, dict *fields.Dictionary, docs *docstore.Store, index *textindex.Index, cfg Config) *Pipeline {
	if cfg.Codec == nil {
		cfg.Codec = codec.Default
	}
	if cfg.PrimaryKey == "" {
		cfg.PrimaryKey = DefaultPrimaryKey
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	var searchable map[string]struct{}
	if len(cfg.Searchable) > 0 {
		searchable = make(map[string]struct{}, len(cfg.Searchable))
		for _, name := range cfg.Searchable {
			searchable[name] = struct{}{}
		}
	}

	return &Pipeline{
		kv:         m,
		dict:       dict,
		docs:       docs,
		index:      index,
		codec:      cfg.Codec,
		primaryKey: cfg.PrimaryKey,
		searchable: searchable,
		logger:     cfg.Logger,
		observer:   cfg.Observer,
	}
}

// PrimaryKey returns the field name holding external ids.
func (p *Pipeline) PrimaryKey() string { return p.primaryKey }

// Add inserts rec. It fails with extid.ErrDuplicate if the record's external
// id is already registered.
func (p *Pipeline) Add(ctx context.Context, rec any) (Result, error) {
	return p.run(ctx, rec, false)
}

// Upsert inserts rec, or replaces the document registered under its
// external id. A replaced document keeps its internal id; its old postings
// are removed before the new values are indexed.
func (p *Pipeline) Upsert(ctx context.Context, rec any) (Result, error) {
	return p.run(ctx, rec, true)
}

// Delete removes the document registered under ext together with its
// postings and id mapping. It reports whether a document was removed.
func (p *Pipeline) Delete(ctx context.Context, ext model.ExternalID) (bool, error) {
	tx, err := p.kv.BeginWrite(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Close()

	id, ok, err := extid.Resolve(tx, ext)
	if err != nil || !ok {
		return false, err
	}
	removed, err := p.index.Remove(tx, id)
	if err != nil {
		return false, err
	}
	if _, err := p.docs.Delete(tx, id); err != nil {
		return false, err
	}
	if err := extid.Remove(tx, ext, id); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}

	p.logger.Debug("document deleted", "external_id", ext, "doc_id", uint32(id), "tokens", removed)
	return true, nil
}

func (p *Pipeline) run(ctx context.Context, rec any, upsert bool) (res Result, err error) {
	state := Start
	var ext model.ExternalID

	p.transition(ext, state)
	defer func() {
		if err != nil {
			p.transition(res.External, Aborted)
			p.logger.Debug("ingestion aborted", "external_id", res.External, "state", state.String(), "error", err)
			err = &Error{State: state, Err: err}
			res = Result{External: res.External}
		}
	}()

	values, err := codec.EncodeFields(p.codec, rec)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrCodec, err)
	}
	raw, ok := values[p.primaryKey]
	if !ok {
		return res, fmt.Errorf("%w: field %q", ErrMissingExternalID, p.primaryKey)
	}
	ext, err = extid.Parse(raw)
	if err != nil {
		return res, err
	}
	res.External = ext

	tx, err := p.kv.BeginWrite(ctx)
	if err != nil {
		return res, err
	}
	defer tx.Close()

	// Sorted so that field ids are allocated deterministically.
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)

	byID := make(map[model.FieldID][]byte, len(names))
	var tokens []string
	for _, name := range names {
		fid, _, err := p.dict.IDFor(tx, name)
		if err != nil {
			return res, err
		}
		byID[fid] = values[name]

		if p.isSearchable(name) {
			toks, err := textindex.ValueTokens(values[name])
			if err != nil {
				return res, err
			}
			tokens = append(tokens, toks...)
		}
	}
	state = FieldsResolved
	p.transition(ext, state)

	res.ID, res.Created, err = p.assign(tx, ext, upsert)
	if err != nil {
		return res, err
	}
	state = IDAssigned
	p.transition(ext, state)

	if err := p.docs.Put(tx, res.ID, model.NewDocument(byID)); err != nil {
		return res, err
	}
	state = Stored
	p.transition(ext, state)

	tokens = textindex.Distinct(tokens)
	if err := p.index.Add(tx, res.ID, tokens); err != nil {
		return res, err
	}
	state = Indexed
	p.transition(ext, state)

	if err := tx.Commit(); err != nil {
		return res, err
	}
	state = Committed
	p.transition(ext, state)

	res.Fields = len(byID)
	res.Tokens = len(tokens)
	p.logger.Debug("document committed",
		"external_id", ext,
		"doc_id", uint32(res.ID),
		"created", res.Created,
		"fields", res.Fields,
		"tokens", res.Tokens,
	)
	return res, nil
}

// assign resolves the internal id for ext. For upserts of an existing
// document the old postings are dropped so that the reindex leaves no stale
// tokens behind.
func (p *Pipeline) assign(tx *kv.WriteTx, ext model.ExternalID, upsert bool) (model.DocID, bool, error) {
	if upsert {
		id, ok, err := extid.Resolve(tx, ext)
		if err != nil {
			return 0, false, err
		}
		if ok {
			if _, err := p.index.Remove(tx, id); err != nil {
				return 0, false, err
			}
			return id, false, nil
		}
	}
	id, err := extid.Register(tx, ext)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (p *Pipeline) isSearchable(name string) bool {
	if p.searchable == nil {
		return true
	}
	_, ok := p.searchable[name]
	return ok
}

func (p *Pipeline) transition(ext model.ExternalID, s State) {
	if p.observer != nil {
		p.observer(ext, s)
	}
}
