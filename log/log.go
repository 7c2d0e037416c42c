// Package log is a leveled logging facade on top of log/slog.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"sync"
)

type (
	// Level is the log level for the logs.
	Level = slog.Level

	// Handler is the log handler function.
	Handler = func(_ context.Context, _ Level, format string, args ...interface{})
)

const (
	// ErrorLevel level. Used for errors that should definitely be noted.
	ErrorLevel = slog.LevelError
	// WarnLevel level. Non-critical entries that deserve eyes.
	WarnLevel = slog.LevelWarn
	// NoticeLevel level. Normal but significant conditions. slog doesn't have a
	// Notice level, so we use the average between Info and Warn.
	NoticeLevel = (slog.LevelInfo + slog.LevelWarn) / 2
	// InfoLevel level. General operational entries about what's going on inside
	// the application.
	InfoLevel = slog.LevelInfo
	// DebugLevel level. Usually only enabled when debugging. Very verbose logging.
	DebugLevel = slog.LevelDebug
)

var allLevels = []slog.Level{
	DebugLevel,
	InfoLevel,
	NoticeLevel,
	WarnLevel,
	ErrorLevel,
}

var logLevelMu = sync.Mutex{}
var logLevel = NoticeLevel

func logFuncAdapter(slogFunc func(ctx context.Context, msg string, args ...interface{})) Handler {
	return func(ctx context.Context, _ Level, format string, args ...interface{}) {
		slogFunc(ctx, fmt.Sprintf(format, args...))
	}
}

var defaultHandlers = map[Level]Handler{
	DebugLevel: logFuncAdapter(slog.DebugContext),
	InfoLevel:  logFuncAdapter(slog.InfoContext),
	NoticeLevel: func(ctx context.Context, _ Level, format string, args ...interface{}) {
		slog.Default().Log(ctx, NoticeLevel, fmt.Sprintf(format, args...))
	},
	WarnLevel:  logFuncAdapter(slog.WarnContext),
	ErrorLevel: logFuncAdapter(slog.ErrorContext),
}
var handlers = maps.Clone(defaultHandlers)
var handlersMu = sync.RWMutex{}

func init() {
	slog.SetDefault(slog.New(newConsoleHandler(os.Stderr, logLevel)))
}

// SetLevel sets the level below which messages are discarded.
func SetLevel(level Level) (oldLevel Level) {
	logLevelMu.Lock()
	defer logLevelMu.Unlock()

	oldLevel = logLevel
	logLevel = level
	slog.SetDefault(slog.New(newConsoleHandler(os.Stderr, level)))
	return oldLevel
}

// SetHandler overrides the handler function for all log levels. A nil handler
// restores the defaults.
func SetHandler(handler Handler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	if handler == nil {
		handlers = maps.Clone(defaultHandlers)
		return
	}
	for _, level := range allLevels {
		handlers[level] = handler
	}
}

func isLevelEnabled(context context.Context, level Level) bool {
	return slog.Default().Enabled(context, level)
}

func log(context context.Context, level Level, args ...interface{}) {
	if !isLevelEnabled(context, level) {
		return
	}

	logf(context, level, fmt.Sprint(args...))
}

func logf(context context.Context, level Level, format string, args ...interface{}) {
	if !isLevelEnabled(context, level) {
		return
	}

	handlersMu.RLock()
	handler := handlers[level]
	handlersMu.RUnlock()

	handler(context, level, format, args...)
}

// Debugf outputs messages with the level [DebugLevel] (when that is enabled) using the
// configured logging handler.
func Debugf(context context.Context, format string, args ...interface{}) {
	logf(context, DebugLevel, format, args...)
}

// Infof outputs messages with the level [InfoLevel] (when that is enabled) using the
// configured logging handler.
func Infof(context context.Context, format string, args ...interface{}) {
	logf(context, InfoLevel, format, args...)
}

// Noticef outputs messages with the level [NoticeLevel] (when that is enabled) using the
// configured logging handler.
func Noticef(context context.Context, format string, args ...interface{}) {
	logf(context, NoticeLevel, format, args...)
}

// Warningf outputs messages with the level [WarnLevel] (when that is enabled) using the
// configured logging handler.
func Warningf(context context.Context, format string, args ...interface{}) {
	logf(context, WarnLevel, format, args...)
}

// Error outputs messages with the level [ErrorLevel] (when that is enabled) using the
// configured logging handler.
func Error(context context.Context, args ...interface{}) {
	log(context, ErrorLevel, args...)
}

// Errorf outputs messages with the level [ErrorLevel] (when that is enabled) using the
// configured logging handler.
func Errorf(context context.Context, format string, args ...interface{}) {
	logf(context, ErrorLevel, format, args...)
}
