package logger

import (
	"fmt"

	"github.com/dynoform/composer/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Development environments get the
// human-readable console encoder, everything else logs JSON.
func New(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Log.Level, err)
	}

	var zc zap.Config
	if cfg.App.Env == "development" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	log, err := zc.Build(zap.Fields(zap.String("service", cfg.App.Name)))
	if err != nil {
		return nil, err
	}
	return log, nil
}
