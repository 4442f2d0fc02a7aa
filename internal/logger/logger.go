package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation constants
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes the daemon's logging destination. With an empty Dir and
// Path, logs go to stderr only. Rotation parameters follow lumberjack
// semantics.
type Config struct {
	Level      string `toml:"level" mapstructure:"level"`             // debug, info, warn, error (default info)
	Dir        string `toml:"dir" mapstructure:"dir"`                 // base directory; file becomes Dir/scanpipe.log
	Path       string `toml:"path" mapstructure:"path"`               // explicit file path overrides Dir
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"` // megabytes before rotation
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"` // gzip rotated files
}

// Level parses the configured level, defaulting to info.
func (c Config) level() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Writer returns the rotated file writer, or nil when no file output is
// configured.
func (c Config) Writer() io.WriteCloser {
	path := c.Path
	if path == "" && c.Dir != "" {
		path = filepath.Join(c.Dir, "scanpipe.log")
	}
	if path == "" {
		return nil
	}
	return &lj.Logger{
		Filename:   path,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
}

// New builds the daemon logger: colored text on stderr, plus the rotated
// file when configured.
func New(c Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level()}
	var w io.Writer = os.Stderr
	if fw := c.Writer(); fw != nil {
		w = io.MultiWriter(os.Stderr, fw)
	}
	return slog.New(NewColorTextHandler(w, opts, true))
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
