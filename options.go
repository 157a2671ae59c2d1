package lexigo

import (
	"log/slog"

	"github.com/hupe1980/lexigo/codec"
	"github.com/hupe1980/lexigo/internal/docstore"
	"github.com/hupe1980/lexigo/internal/fields"
	"github.com/hupe1980/lexigo/internal/ingest"
	"github.com/hupe1980/lexigo/model"
)

// DefaultLimit is the search limit used when none is given.
const DefaultLimit = 10

// Compression selects how stored document bodies are compressed.
type Compression = docstore.Compression

// Document compression modes.
const (
	CompressionNone = docstore.CompressionNone
	CompressionLZ4  = docstore.CompressionLZ4
	CompressionZstd = docstore.CompressionZstd
)

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	return docstore.ParseCompression(s)
}

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	primaryKey       string
	defaultLimit     int
	maxLimit         int
	compression      Compression
	searchable       []string
	syncWrites       bool
	cacheSize        int64
	fieldCacheSize   int
	observer         func(model.ExternalID, IngestState)
}

// Option configures Open.
type Option func(*options)

// WithCodec configures the record codec.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &lexigo.BasicMetricsCollector{}
//	db, _ := lexigo.Open[Doc](lexigo.InMemory(), lexigo.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Adds: %d, Avg latency: %dns\n", stats.AddCount, stats.AddAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := lexigo.NewJSONLogger(slog.LevelInfo)
//	db, _ := lexigo.Open[Doc](lexigo.Local("./data"), lexigo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithPrimaryKey sets the record field that holds the external id.
// Defaults to "id".
func WithPrimaryKey(name string) Option {
	return func(o *options) {
		o.primaryKey = name
	}
}

// WithDefaultLimit sets the limit used by searches that do not call Limit.
func WithDefaultLimit(n int) Option {
	return func(o *options) {
		o.defaultLimit = n
	}
}

// WithMaxLimit caps the limit a search may request. Zero means no cap.
func WithMaxLimit(n int) Option {
	return func(o *options) {
		o.maxLimit = n
	}
}

// WithCompression sets the compression applied to newly written documents.
// Documents written with another mode stay readable.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithSearchableFields restricts text indexing to the named fields.
// By default every field is indexed.
func WithSearchableFields(names ...string) Option {
	return func(o *options) {
		o.searchable = append([]string(nil), names...)
	}
}

// WithSyncWrites fsyncs the write-ahead log on every commit.
func WithSyncWrites(enabled bool) Option {
	return func(o *options) {
		o.syncWrites = enabled
	}
}

// WithCacheSize sets the storage block cache size in bytes.
func WithCacheSize(bytes int64) Option {
	return func(o *options) {
		o.cacheSize = bytes
	}
}

// WithFieldCacheSize sets how many field names are cached in memory.
func WithFieldCacheSize(n int) Option {
	return func(o *options) {
		o.fieldCacheSize = n
	}
}

// WithIngestObserver registers fn to be called on every ingestion state
// transition. fn runs on the writing goroutine while the write lock is held.
func WithIngestObserver(fn func(ext model.ExternalID, state IngestState)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		primaryKey:       ingest.DefaultPrimaryKey,
		defaultLimit:     DefaultLimit,
		compression:      CompressionNone,
		fieldCacheSize:   fields.DefaultCacheSize,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
