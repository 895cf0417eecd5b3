package logger

import (
	"go.uber.org/zap"

	"github.com/jzmstrjp/kikitori/internal/config"
)

// New builds the application logger. While the TUI owns the terminal the
// logger writes to the configured file so the alt screen stays clean;
// without a file it falls back to stderr.
func New(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Env == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogPath != "" {
		zcfg.OutputPaths = []string{cfg.LogPath}
		zcfg.ErrorOutputPaths = []string{cfg.LogPath}
	}

	return zcfg.Build()
}
