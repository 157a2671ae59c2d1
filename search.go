// This file implements a fluent search API for querying Lexigo instances.
package lexigo

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/hupe1980/lexigo/internal/kv"
	"github.com/hupe1980/lexigo/model"
)

// SearchResult is one match of a text query.
type SearchResult[T any] struct {
	ID         model.DocID
	ExternalID model.ExternalID
	// Score is the number of distinct query tokens the document matched.
	Score    int
	Document T
}

// SearchBuilder is a fluent builder for constructing search queries.
//
// A query is split into tokens the same way field values are; a document
// matches a query token when it contains a token starting with it. Results
// are ordered by Score descending, then by ID ascending.
type SearchBuilder[T any] struct {
	db    *Lexigo[T]
	tx    *kv.ReadTx // nil: each execution opens its own snapshot
	query string
	limit int
}

func newSearchBuilder[T any](db *Lexigo[T], tx *kv.ReadTx, query string) *SearchBuilder[T] {
	return &SearchBuilder[T]{
		db:    db,
		tx:    tx,
		query: query,
		limit: db.opts.defaultLimit,
	}
}

// Limit sets the maximum number of results.
func (sb *SearchBuilder[T]) Limit(n int) *SearchBuilder[T] {
	sb.limit = n
	return sb
}

// Execute runs the search.
func (sb *SearchBuilder[T]) Execute(ctx context.Context) ([]SearchResult[T], error) {
	start := time.Now()

	results, err := sb.execute(ctx)

	sb.db.metrics.RecordSearch(len(results), time.Since(start), err)
	sb.db.logger.LogSearch(ctx, sb.query, sb.limit, len(results), err)

	return results, err
}

func (sb *SearchBuilder[T]) execute(ctx context.Context) ([]SearchResult[T], error) {
	if sb.limit <= 0 || (sb.db.opts.maxLimit > 0 && sb.limit > sb.db.opts.maxLimit) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, sb.limit)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := []SearchResult[T]{}
	run := func(r kv.Reader) error {
		matches, err := sb.db.engine.Search(r, sb.query, sb.limit)
		if err != nil {
			return translateError(err)
		}
		for _, m := range matches {
			rec, err := sb.db.decode(m)
			if err != nil {
				return err
			}
			results = append(results, SearchResult[T]{
				ID:         m.ID,
				ExternalID: m.External,
				Score:      m.Score,
				Document:   rec,
			})
		}
		return nil
	}

	if sb.tx != nil {
		if err := run(sb.tx); err != nil {
			return nil, err
		}
		return results, nil
	}
	if err := sb.db.view(ctx, run); err != nil {
		return nil, err
	}
	return results, nil
}

// MustExecute runs the search, panicking on error.
// Use this only in tests or when you're certain the query is valid.
func (sb *SearchBuilder[T]) MustExecute(ctx context.Context) []SearchResult[T] {
	results, err := sb.Execute(ctx)
	if err != nil {
		panic(err)
	}
	return results
}

// Documents runs the search and returns only the decoded records.
func (sb *SearchBuilder[T]) Documents(ctx context.Context) ([]T, error) {
	results, err := sb.Execute(ctx)
	if err != nil {
		return nil, err
	}
	docs := make([]T, len(results))
	for i, r := range results {
		docs[i] = r.Document
	}
	return docs, nil
}

// Stream returns an iterator over search results, best first.
// The iterator supports early termination by breaking from the loop.
//
// Example:
//
//	for result, err := range db.Search("fox").Limit(100).Stream(ctx) {
//	    if err != nil { break }
//	    if result.Score < 2 { break }
//	    process(result)
//	}
func (sb *SearchBuilder[T]) Stream(ctx context.Context) iter.Seq2[SearchResult[T], error] {
	return func(yield func(SearchResult[T], error) bool) {
		results, err := sb.Execute(ctx)
		if err != nil {
			yield(SearchResult[T]{}, err)
			return
		}
		for _, r := range results {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// First returns only the best result, or ErrNotFound if nothing matched.
func (sb *SearchBuilder[T]) First(ctx context.Context) (SearchResult[T], error) {
	sb.limit = 1
	results, err := sb.Execute(ctx)
	if err != nil {
		return SearchResult[T]{}, err
	}
	if len(results) == 0 {
		return SearchResult[T]{}, ErrNotFound
	}
	return results[0], nil
}

// Count executes the search and returns the number of results.
func (sb *SearchBuilder[T]) Count(ctx context.Context) (int, error) {
	results, err := sb.Execute(ctx)
	if err != nil {
		return 0, err
	}
	return len(results), nil
}

// Exists checks if at least one document matches the search.
func (sb *SearchBuilder[T]) Exists(ctx context.Context) (bool, error) {
	sb.limit = 1
	results, err := sb.Execute(ctx)
	if err != nil {
		return false, err
	}
	return len(results) > 0, nil
}
