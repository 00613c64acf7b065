package utils

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It is a no-op until InitLogger runs, which
// keeps tests quiet.
var Log = zap.NewNop().Sugar()

// InitLogger builds the global logger for env ("development" gets the console
// encoder) at the given level.
func InitLogger(env, level string) error {
	var cfg zap.Config
	if strings.EqualFold(env, "development") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = logger.Sugar()
	return nil
}

// SyncLogger flushes buffered entries; call it on shutdown.
func SyncLogger() {
	_ = Log.Sync()
}
