package cli

import (
	"go.uber.org/zap"
	"quiz-session-engine/internal/config"
	"quiz-session-engine/internal/logging"
)

func newLogger(cfg config.Config, console bool) *zap.Logger {
	level := cfg.Log.Level
	if level == "" && cfg.Server.Mode == "debug" {
		level = "debug"
	}
	return logging.New(logging.Options{Level: level, File: cfg.Log.File, Console: console})
}
