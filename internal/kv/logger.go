package kv

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cockroachdb/pebble"
)

// pebbleLogger routes Pebble's own log lines through slog.
type pebbleLogger struct {
	logger *slog.Logger
}

var _ pebble.Logger = pebbleLogger{}

func (l pebbleLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l pebbleLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l pebbleLogger) Fatalf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), "fatal", true)
	os.Exit(1)
}
