package logging

import (
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/blackwell-systems/libreq/internal/config"
	"github.com/blackwell-systems/libreq/internal/util"
)

// New builds a zap logger from the log section of the config.
// When toFile is set, output goes to cfg.File so the terminal stays free for
// the interactive form; otherwise it goes to stderr.
func New(cfg config.LogConfig, toFile bool) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.DisableStacktrace = true

	switch cfg.Format {
	case "json":
		zapCfg.Encoding = "json"
	default:
		zapCfg.Encoding = "console"
	}

	zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if toFile {
		if cfg.File == "" {
			return zap.NewNop(), nil
		}
		if err := util.EnsureDir(filepath.Dir(cfg.File)); err != nil {
			return nil, err
		}
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
	} else {
		zapCfg.OutputPaths = []string{"stderr"}
	}

	return zapCfg.Build()
}
