// Package logger holds the process-wide structured logger.
package logger

import (
	"errors"
	"os"
	"syscall"

	"go.uber.org/zap"
)

// Log is the global sugared logger. It discards everything until Init is
// called, so packages can log safely from tests.
var Log = zap.NewNop().Sugar()

// Init builds the global logger at the given level.
func Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.Encoding = "console"
	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = zl.Sugar()

	return nil
}

// Sync flushes buffered entries. Errors from syncing a terminal are ignored.
func Sync() error {
	if err := Log.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) && !errors.Is(err, syscall.ENOTTY) {
		return err
	}
	return nil
}
