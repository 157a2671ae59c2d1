// This file implements an immutable fluent builder for opening Lexigo instances.
package lexigo

import "github.com/hupe1980/lexigo/codec"

// Builder is an immutable fluent builder for Lexigo instances.
// Each method returns a new builder with the updated configuration, so a
// partially configured builder can be shared and specialized safely.
//
// Example:
//
//	db, err := lexigo.New[Article]().
//	    Dir("./data").
//	    PrimaryKey("slug").
//	    Searchable("title", "body").
//	    Compression(lexigo.CompressionZstd).
//	    Build()
type Builder[T any] struct {
	backend Backend
	opts    []Option
}

// New creates a builder for an in-memory database.
func New[T any]() Builder[T] {
	return Builder[T]{backend: InMemory()}
}

func (b Builder[T]) with(o Option) Builder[T] {
	b.opts = append(b.opts[:len(b.opts):len(b.opts)], o)
	return b
}

// Dir stores the database in dir.
func (b Builder[T]) Dir(dir string) Builder[T] {
	b.backend = Local(dir)
	return b
}

// InMemory keeps the database in memory.
func (b Builder[T]) InMemory() Builder[T] {
	b.backend = InMemory()
	return b
}

// PrimaryKey sets the record field holding the external id.
func (b Builder[T]) PrimaryKey(name string) Builder[T] { return b.with(WithPrimaryKey(name)) }

// Searchable restricts text indexing to the named fields.
func (b Builder[T]) Searchable(names ...string) Builder[T] {
	return b.with(WithSearchableFields(names...))
}

// Compression sets the document compression.
func (b Builder[T]) Compression(c Compression) Builder[T] { return b.with(WithCompression(c)) }

// DefaultLimit sets the search limit used when none is given.
func (b Builder[T]) DefaultLimit(n int) Builder[T] { return b.with(WithDefaultLimit(n)) }

// MaxLimit caps search limits.
func (b Builder[T]) MaxLimit(n int) Builder[T] { return b.with(WithMaxLimit(n)) }

// SyncWrites fsyncs every commit.
func (b Builder[T]) SyncWrites(enabled bool) Builder[T] { return b.with(WithSyncWrites(enabled)) }

// Logger sets the logger.
func (b Builder[T]) Logger(l *Logger) Builder[T] { return b.with(WithLogger(l)) }

// Metrics sets the metrics collector.
func (b Builder[T]) Metrics(mc MetricsCollector) Builder[T] { return b.with(WithMetricsCollector(mc)) }

// Codec sets the record codec.
func (b Builder[T]) Codec(c codec.Codec) Builder[T] { return b.with(WithCodec(c)) }

// Build opens the database.
func (b Builder[T]) Build() (*Lexigo[T], error) {
	return Open[T](b.backend, b.opts...)
}

// MustBuild opens the database, panicking on error.
func (b Builder[T]) MustBuild() *Lexigo[T] {
	db, err := b.Build()
	if err != nil {
		panic(err)
	}
	return db
}
