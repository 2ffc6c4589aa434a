// Package sysutil holds process bootstrap helpers shared by the server
// entrypoint: log level parsing and global logger installation.
package sysutil

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel maps a LOG_LEVEL value to a zerolog level.
// Supported values (case-insensitive): debug, info, warn, error, fatal, panic.
// Empty and unknown values yield info.
func ParseLevel(lvl string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	}
	return zerolog.InfoLevel
}

// SetLogLevel configures the global zerolog level and returns the level
// applied.
func SetLogLevel(lvl string) zerolog.Level {
	l := ParseLevel(lvl)
	zerolog.SetGlobalLevel(l)
	return l
}

// NewLogger builds the service logger writing to w. pretty switches to a
// human-readable console writer for local development.
func NewLogger(w io.Writer, pretty bool, service string) zerolog.Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Str("service", service).Logger()
}

// InstallLogger makes l the global logger and the fallback returned by
// zerolog.Ctx for contexts that carry no request logger.
func InstallLogger(l zerolog.Logger) {
	log.Logger = l
	zerolog.DefaultContextLogger = &log.Logger
}
