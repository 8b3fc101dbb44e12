package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Logger is the diagnostic logger used by devconsole internals. It is separate
// from the console facade: storage failures and lifecycle events end up here,
// never in the captured log list.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithGroup(name string) Logger
	SetLevel(level slog.Level)
}

// Config holds logger configuration
type Config struct {
	Level   slog.Level
	Format  Format
	Output  io.Writer
	AddTime bool
}

// Format represents the output format
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

const (
	EnvDebugFile  = "DEVCONSOLE_DEBUG_FILE"
	EnvDebugLevel = "DEVCONSOLE_DEBUG_LEVEL"
)

// slogLogger shares one LevelVar between itself and every derived logger,
// so SetLevel on any of them affects the whole family.
type slogLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

// NewLogger creates a new logger with the given configuration
func NewLogger(config Config) Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	level := new(slog.LevelVar)
	level.Set(config.Level)

	opts := &slog.HandlerOptions{Level: level}
	if !config.AddTime {
		opts.ReplaceAttr = dropTime
	}

	var handler slog.Handler
	switch config.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(config.Output, opts)
	default:
		handler = slog.NewTextHandler(config.Output, opts)
	}

	return &slogLogger{
		logger: slog.New(handler),
		level:  level,
	}
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && len(groups) == 0 {
		return slog.Attr{}
	}
	return a
}

// NewDefaultLogger logs info and above to stderr without timestamps
func NewDefaultLogger() Logger {
	return NewLogger(Config{Level: slog.LevelInfo, Format: FormatText})
}

// NewQuietLogger only shows errors
func NewQuietLogger() Logger {
	return NewLogger(Config{Level: slog.LevelError, Format: FormatText})
}

// NewVerboseLogger shows debug information
func NewVerboseLogger() Logger {
	return NewLogger(Config{Level: slog.LevelDebug, Format: FormatText})
}

// NewDisabledLogger discards all output (useful for tests)
func NewDisabledLogger() Logger {
	return NewLogger(Config{Level: slog.Level(1000), Output: io.Discard})
}

// ParseLevel maps a level name to a slog level. Unknown names mean errors only.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// GetDebugFilePath returns the diagnostic file path from the environment or a temp default
func GetDebugFilePath(defaultFileName string) string {
	if debugFile := os.Getenv(EnvDebugFile); debugFile != "" {
		return debugFile
	}
	return filepath.Join(os.TempDir(), defaultFileName)
}

// NewFileLoggerFromEnv appends to DEVCONSOLE_DEBUG_FILE at DEVCONSOLE_DEBUG_LEVEL.
// It falls back to a discarding logger when the file cannot be opened.
func NewFileLoggerFromEnv(defaultFileName string) Logger {
	level := ParseLevel(os.Getenv(EnvDebugLevel))

	file, err := os.OpenFile(GetDebugFilePath(defaultFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return NewLogger(Config{Level: level, Output: io.Discard})
	}
	return NewLogger(Config{Level: level, Format: FormatText, Output: file, AddTime: true})
}

func (l *slogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...), level: l.level}
}

func (l *slogLogger) WithGroup(name string) Logger {
	return &slogLogger{logger: l.logger.WithGroup(name), level: l.level}
}

func (l *slogLogger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

var (
	globalMu     sync.RWMutex
	globalLogger = NewDefaultLogger()
)

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// NewComponentLogger tags the global logger with a component name
func NewComponentLogger(component string) Logger {
	return GetGlobalLogger().With("component", component)
}

// NewDriverLogger is the logger storage drivers report failures on
func NewDriverLogger(driver string) Logger {
	return GetGlobalLogger().With("component", "storage", "driver", driver)
}

// LogError logs err with msg and extra key/value pairs
func LogError(logger Logger, msg string, err error, args ...any) {
	logger.Error(msg, append(args, "error", err)...)
}
