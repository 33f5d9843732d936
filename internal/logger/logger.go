package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	base        zerolog.Logger
	logFile     *os.File
	initialized atomic.Bool
	lazy        sync.Once
)

// Init configures the global JSON logger.
//
// Environment variables (optional):
//   - LOG_LEVEL: debug|info|warn|error (default: info)
//   - LOG_PRETTY: true|false (default: false)
//   - LOG_FILE: path of a file that receives a copy of every line (appended)
//
// A LOG_FILE that cannot be opened is reported on the console logger and ignored.
func Init() {
	level := parseLevel(getenv("LOG_LEVEL", "info"))
	pretty := strings.EqualFold(getenv("LOG_PRETTY", "false"), "true")

	zerolog.TimeFieldFormat = time.RFC3339Nano
	var w io.Writer = os.Stdout
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	closeFile()
	var fileErr error
	if path := getenv("LOG_FILE", ""); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fileErr = err
		} else {
			logFile = f
			w = zerolog.MultiLevelWriter(w, f)
		}
	}

	base = zerolog.New(w).With().Timestamp().Logger().Level(level)
	initialized.Store(true)
	if fileErr != nil {
		base.Warn().Err(fileErr).Msg("log file unavailable, logging to console only")
	} else if logFile != nil {
		base.Info().Str("log_file", logFile.Name()).Msg("logging initialized")
	}
}

// L returns the global logger. Call Init() once on startup; a logger used
// before that is initialized from the environment on first use.
func L() *zerolog.Logger {
	lazy.Do(func() {
		if !initialized.Load() {
			Init()
		}
	})
	return &base
}

// Component returns a child of the global logger tagged with component=name.
func Component(name string) zerolog.Logger {
	return L().With().Str("component", name).Logger()
}

// Close releases the LOG_FILE handle, if any.
func Close() {
	closeFile()
}

func closeFile() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
