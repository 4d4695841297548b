// Package logger builds the process-wide zerolog logger.  Records go to
// stdout and to a size-rotated file.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config defines the options for the process logger.
type Config struct {
	// Level is the minimum enabled level: "debug", "info", "warn" or "error".
	// Anything else means info.
	Level string

	// File is the path of the rotated log file.  Empty disables file output.
	File string

	// FileSizeMB is the size in megabytes at which the file is rotated.
	FileSizeMB int

	// FileCount is the number of rotated files to keep.
	FileCount int

	// Console switches stdout to zerolog's human-readable writer.
	Console bool

	// Out replaces stdout, mainly for tests.
	Out io.Writer
}

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Init builds the process logger from cfg, installs it as the default
// returned by Get and returns it.
func Init(cfg Config) zerolog.Logger {
	if cfg.FileSizeMB == 0 {
		cfg.FileSizeMB = 10
	}
	if cfg.FileCount == 0 {
		cfg.FileCount = 5
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	writers := []io.Writer{out}
	if cfg.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.FileSizeMB, // megabytes
			MaxBackups: cfg.FileCount,
			MaxAge:     28, // days
		})
	}

	level := parseLevel(cfg.Level)
	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp()
	if level == zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	l := ctx.Logger()

	mu.Lock()
	base = l
	mu.Unlock()
	return l
}

// Get returns the process logger.  Before Init it logs JSON to stdout.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Component returns the process logger tagged with a component field.
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
