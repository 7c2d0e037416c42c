package log

import (
	"context"

	"github.com/coreos/go-systemd/v22/journal"
)

// InitJournalHandler makes the log package print to the journal if stderr is
// connected to the journal. Container entrypoints can end up with a journal
// stream on stderr when the runtime logs to journald.
func InitJournalHandler(force bool) {
	if !force {
		isJournalStream, err := journal.StderrIsJournalStream()
		if err != nil {
			Warningf(context.Background(), "Error checking if stderr is connected to the journal: %v", err)
			return
		}
		if !isJournalStream {
			return
		}
	}

	SetHandler(func(_ context.Context, level Level, format string, args ...interface{}) {
		_ = journal.Print(mapPriority(level), format, args...)
	})
}

func mapPriority(level Level) journal.Priority {
	switch {
	case level <= DebugLevel:
		return journal.PriDebug
	case level <= InfoLevel:
		return journal.PriInfo
	case level <= NoticeLevel:
		return journal.PriNotice
	case level <= WarnLevel:
		return journal.PriWarning
	default:
		return journal.PriErr
	}
}
