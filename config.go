package lexigo

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/lexigo/codec"
)

// Config is the file form of the Open options.
//
//	storage:
//	  dir: ./data
//	  syncWrites: true
//	  compression: zstd
//	documents:
//	  primaryKey: id
//	  searchable: [title, body]
//	search:
//	  defaultLimit: 10
//	  maxLimit: 1000
//	logging:
//	  level: info
//	  format: json
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Documents DocumentsConfig `yaml:"documents"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StorageConfig selects the backend and its tuning.
type StorageConfig struct {
	// Dir is the database directory. Empty means in-memory.
	Dir            string `yaml:"dir"`
	SyncWrites     bool   `yaml:"syncWrites"`
	CacheSize      int64  `yaml:"cacheSize"`
	FieldCacheSize int    `yaml:"fieldCacheSize"`
	Compression    string `yaml:"compression"`
}

// DocumentsConfig controls how records are identified and indexed.
type DocumentsConfig struct {
	PrimaryKey string   `yaml:"primaryKey"`
	Searchable []string `yaml:"searchable"`
	Codec      string   `yaml:"codec"`
}

// SearchConfig bounds query limits.
type SearchConfig struct {
	DefaultLimit int `yaml:"defaultLimit"`
	MaxLimit     int `yaml:"maxLimit"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	// Level is debug, info, warn or error. Empty disables logging.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// LoadConfig reads a YAML config file (if provided) and applies LEXIGO_*
// environment-variable overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Documents: DocumentsConfig{
			PrimaryKey: "id",
			Codec:      "go-json",
		},
		Search: SearchConfig{
			DefaultLimit: DefaultLimit,
		},
		Logging: LoggingConfig{
			Format: "text",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LEXIGO_DIR"); v != "" {
		cfg.Storage.Dir = v
	}
	if v := os.Getenv("LEXIGO_SYNC_WRITES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Storage.SyncWrites = b
		}
	}
	if v := os.Getenv("LEXIGO_CACHE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Storage.CacheSize = n
		}
	}
	if v := os.Getenv("LEXIGO_COMPRESSION"); v != "" {
		cfg.Storage.Compression = v
	}
	if v := os.Getenv("LEXIGO_PRIMARY_KEY"); v != "" {
		cfg.Documents.PrimaryKey = v
	}
	if v := os.Getenv("LEXIGO_SEARCHABLE"); v != "" {
		cfg.Documents.Searchable = strings.Split(v, ",")
	}
	if v := os.Getenv("LEXIGO_CODEC"); v != "" {
		cfg.Documents.Codec = v
	}
	if v := os.Getenv("LEXIGO_DEFAULT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.DefaultLimit = n
		}
	}
	if v := os.Getenv("LEXIGO_MAX_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxLimit = n
		}
	}
	if v := os.Getenv("LEXIGO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LEXIGO_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Backend returns Local(Dir), or InMemory when Dir is empty.
func (c *Config) Backend() Backend {
	if c.Storage.Dir == "" {
		return InMemory()
	}
	return Local(c.Storage.Dir)
}

// Options converts the config into Open options.
func (c *Config) Options() ([]Option, error) {
	comp, err := ParseCompression(c.Storage.Compression)
	if err != nil {
		return nil, err
	}
	cd, ok := codec.ByName(c.Documents.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrCodec, c.Documents.Codec)
	}

	opts := []Option{
		WithCodec(cd),
		WithCompression(comp),
		WithSyncWrites(c.Storage.SyncWrites),
		WithCacheSize(c.Storage.CacheSize),
		WithFieldCacheSize(c.Storage.FieldCacheSize),
		WithPrimaryKey(c.Documents.PrimaryKey),
		WithDefaultLimit(c.Search.DefaultLimit),
		WithMaxLimit(c.Search.MaxLimit),
	}
	if len(c.Documents.Searchable) > 0 {
		opts = append(opts, WithSearchableFields(c.Documents.Searchable...))
	}

	if c.Logging.Level != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
			return nil, fmt.Errorf("logging level %q: %w", c.Logging.Level, err)
		}
		switch strings.ToLower(c.Logging.Format) {
		case "", "text":
			opts = append(opts, WithLogger(NewTextLogger(level)))
		case "json":
			opts = append(opts, WithLogger(NewJSONLogger(level)))
		default:
			return nil, fmt.Errorf("logging format %q: want text or json", c.Logging.Format)
		}
	}
	return opts, nil
}
