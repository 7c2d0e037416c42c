package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// consoleHandler writes one line per record: <timestamp> <level> <message>.
// The facade formats messages before they reach the handler, so attributes
// and groups are ignored.
type consoleHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Level
}

func newConsoleHandler(w io.Writer, level slog.Level) *consoleHandler {
	return &consoleHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
	}
}

// Enabled implements slog.Handler.
func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle implements slog.Handler.
func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := fmt.Fprintf(h.w, "%s %s %s\n", r.Time.Format("15:04:05"), levelName(r.Level), r.Message)
	return err
}

// WithAttrs implements slog.Handler. Attributes are dropped because messages
// arrive fully formatted.
func (h *consoleHandler) WithAttrs([]slog.Attr) slog.Handler {
	return h
}

// WithGroup implements slog.Handler. Groups are dropped because messages
// arrive fully formatted.
func (h *consoleHandler) WithGroup(string) slog.Handler {
	return h
}

// levelName names the levels slog has no string for.
func levelName(level slog.Level) string {
	if level == NoticeLevel {
		return "NOTICE"
	}
	return level.String()
}
