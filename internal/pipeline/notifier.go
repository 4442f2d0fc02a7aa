package pipeline

import (
	"log/slog"

	"github.com/scanpipe/scanpipe/internal/record"
)

// Notifier receives the abstract user-facing signals of the pipeline. The
// surrounding application decides how to surface them (toast, status line).
type Notifier interface {
	// ScanStored fires when a record was accepted and durably stored.
	ScanStored(rec record.ScanRecord)
	// SyncUnconfirmed fires when the record was stored locally but every
	// upload attempt failed.
	SyncUnconfirmed(rec record.ScanRecord)
	// HistoryCleared fires after an explicit clear.
	HistoryCleared()
}

// LogNotifier surfaces signals through the logger. Used when no richer
// notifier is wired in.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

func (n LogNotifier) ScanStored(rec record.ScanRecord) {
	n.logger().Info("scan accepted and stored", "id", rec.ID, "payload", rec.Payload)
}

func (n LogNotifier) SyncUnconfirmed(rec record.ScanRecord) {
	n.logger().Warn("scan stored locally but not confirmed remotely", "id", rec.ID, "payload", rec.Payload)
}

func (n LogNotifier) HistoryCleared() {
	n.logger().Info("history cleared")
}
