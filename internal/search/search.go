// Package search implements the read path: text queries and id lookups.
//
// All operations run against a caller-supplied kv.Reader, so a sequence of
// them observes one consistent snapshot.
package search

import (
	"fmt"
	"log/slog"

	"github.com/hupe1980/lexigo/codec"
	"github.com/hupe1980/lexigo/internal/docstore"
	"github.com/hupe1980/lexigo/internal/extid"
	"github.com/hupe1980/lexigo/internal/fields"
	"github.com/hupe1980/lexigo/internal/kv"
	"github.com/hupe1980/lexigo/internal/textindex"
	"github.com/hupe1980/lexigo/model"
)

// Match is a materialized document.
type Match struct {
	ID       model.DocID
	External model.ExternalID
	// Score is the number of distinct query tokens matched. Zero for lookups.
	Score  int
	Fields codec.Fields
}

// Engine resolves queries into documents.
type Engine struct {
	dict   *fields.Dictionary
	docs   *docstore.Store
	index  *textindex.Index
	logger *slog.Logger
}

// New creates an Engine.
func New(dict *fields.Dictionary, docs *docstore.Store, index *textindex.Index, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		dict:   dict,
		docs:   docs,
		index:  index,
		logger: logger,
	}
}

// Search returns at most limit documents matching query, best first.
// No matching token yields an empty result.
func (e *Engine) Search(r kv.Reader, query string, limit int) ([]Match, error) {
	hits, err := e.index.Query(r, query, limit)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]model.DocID, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	docs, err := e.docs.GetMany(r, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Match, 0, len(hits))
	for _, h := range hits {
		doc, ok := docs[h.ID]
		if !ok {
			// Postings never outlive their document; skip rather than fail.
			e.logger.Warn("posting without document", "doc_id", uint32(h.ID))
			continue
		}
		m, err := e.materialize(r, h.ID, doc)
		if err != nil {
			return nil, err
		}
		m.Score = h.Score
		out = append(out, m)
	}

	e.logger.Debug("search executed", "query", query, "limit", limit, "hits", len(out))
	return out, nil
}

// ByExternal returns the document registered under ext.
func (e *Engine) ByExternal(r kv.Reader, ext model.ExternalID) (Match, bool, error) {
	id, ok, err := extid.Resolve(r, ext)
	if err != nil || !ok {
		return Match{}, false, err
	}
	return e.ByInternal(r, id)
}

// ByInternal returns the document stored under id.
func (e *Engine) ByInternal(r kv.Reader, id model.DocID) (Match, bool, error) {
	doc, ok, err := e.docs.Get(r, id)
	if err != nil || !ok {
		return Match{}, false, err
	}
	m, err := e.materialize(r, id, doc)
	if err != nil {
		return Match{}, false, err
	}
	return m, true, nil
}

func (e *Engine) materialize(r kv.Reader, id model.DocID, doc model.Document) (Match, error) {
	ext, _, err := extid.External(r, id)
	if err != nil {
		return Match{}, err
	}
	values := make(codec.Fields, doc.Len())
	for _, f := range doc.Fields {
		name, err := e.dict.NameFor(r, f.Field)
		if err != nil {
			return Match{}, fmt.Errorf("search: rebuild %s: %w", id, err)
		}
		values[name] = f.Value
	}
	return Match{ID: id, External: ext, Fields: values}, nil
}
