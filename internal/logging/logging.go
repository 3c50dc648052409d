// Package logging provides the leveled logger used across confsync. It is a
// thin printf-style layer over zerolog so callers do not depend on zerolog
// directly.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

// LevelIDs maps each level to its accepted textual names. It is shared by the
// configuration file and the --log-level flag.
var LevelIDs = map[Level][]string{
	Debug: {"debug"},
	Info:  {"info"},
	Warn:  {"warn", "warning"},
	Error: {"error"},
}

func (l Level) String() string {
	if ids, ok := LevelIDs[l]; ok {
		return ids[0]
	}
	return "info"
}

// ParseLevel returns the level for name. Unknown or empty names map to Info.
func ParseLevel(name string) Level {
	name = strings.ToLower(strings.TrimSpace(name))
	for level, ids := range LevelIDs {
		for _, id := range ids {
			if id == name {
				return level
			}
		}
	}
	return Info
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case Debug:
		return zerolog.DebugLevel
	case Warn:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type Config struct {
	Level  Level
	Format string // "console" (default) or "json"
	Output io.Writer
}

type Logger struct {
	log   zerolog.Logger
	level Level
}

func NewLogger(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}

	return &Logger{
		log:   zerolog.New(out).Level(cfg.Level.zerolog()).With().Timestamp().Logger(),
		level: cfg.Level,
	}
}

// NewNop returns a logger that discards everything. Useful in tests.
func NewNop() *Logger {
	return &Logger{log: zerolog.Nop(), level: Error}
}

func (l *Logger) Level() Level {
	return l.level
}

// With returns a child logger that adds key=value to every entry.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{log: l.log.With().Str(key, value).Logger(), level: l.level}
}

func (l *Logger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
