package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger returns a colored, human-readable logger for the dev environment
// and a JSON logger everywhere else, where output is shipped to a collector.
func NewLogger(w io.Writer, env string, level slog.Leveler) *slog.Logger {
	if env != "dev" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		}))
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		AddSource:  true,
	}))
}

// InitLogger installs the environment's logger as the slog default.
func InitLogger(env string, level slog.Level) *slog.Logger {
	logger := NewLogger(os.Stdout, env, level).With(slog.String("env", env))
	slog.SetDefault(logger)
	return logger
}
