// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zulandar/educode/internal/config"
)

// Setup builds a logger from cfg, installs it as the global zerolog logger
// and returns it. Output goes to w (stderr when nil).
func Setup(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), errors.Wrapf(err, "logging: level %q", cfg.Level)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(out).With().Timestamp().Logger().Level(level)
	zerolog.SetGlobalLevel(level)
	log.Logger = logger
	return logger, nil
}

// Debug reports whether the global level lets debug events through.
func Debug() bool {
	return zerolog.GlobalLevel() <= zerolog.DebugLevel
}
