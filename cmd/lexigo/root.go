package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/lexigo"
)

// record keeps every field as raw JSON so output preserves the input form.
type record = map[string]json.RawMessage

type globalFlags struct {
	configPath string
	dir        string
	primaryKey string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "lexigo",
		Short:         "Embedded document store with full-text search",
		Long:          `A command-line interface for adding, searching and backing up lexigo databases.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVarP(&g.dir, "dir", "d", "", "database directory (overrides config)")
	cmd.PersistentFlags().StringVar(&g.primaryKey, "primary-key", "", "record field holding the external id")
	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging to stderr")

	cmd.AddCommand(
		newAddCmd(g),
		newSearchCmd(g),
		newGetCmd(g),
		newDeleteCmd(g),
		newStatsCmd(g),
		newFieldsCmd(g),
		newBackupCmd(g),
		newRestoreCmd(g),
		newBackupsCmd(g),
	)
	return cmd
}

// config loads the config file and applies command-line overrides.
func (g *globalFlags) config() (*lexigo.Config, error) {
	cfg, err := lexigo.LoadConfig(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.dir != "" {
		cfg.Storage.Dir = g.dir
	}
	if g.primaryKey != "" {
		cfg.Documents.PrimaryKey = g.primaryKey
	}
	if g.verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func (g *globalFlags) open() (*lexigo.Lexigo[record], error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Dir == "" {
		return nil, errors.New("no database directory: use --dir, LEXIGO_DIR or storage.dir")
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	db, err := lexigo.Open[record](cfg.Backend(), opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Storage.Dir, err)
	}
	return db, nil
}

func (g *globalFlags) logger() *lexigo.Logger {
	if g.verbose {
		return lexigo.NewTextLogger(slog.LevelDebug)
	}
	return lexigo.NoopLogger()
}
