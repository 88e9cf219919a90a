package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. level accepts the zap level names plus the
// aliases "dev"/"development" and "prod"/"production". When file is set,
// logs go there instead of stderr so a terminal UI can own the screen.
func New(level, file string) (*zap.Logger, error) {
	var cfg zap.Config
	switch level {
	case "dev", "development":
		cfg = zap.NewDevelopmentConfig()
	case "prod", "production", "":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	if file != "" {
		cfg.OutputPaths = []string{file}
		cfg.ErrorOutputPaths = []string{file}
	}
	return cfg.Build()
}
