package audit

import (
	"context"
	"time"

	"github.com/scanpipe/scanpipe/internal/record"
)

// EventType defines the kind of pipeline event.
type EventType string

const (
	EventAccepted   EventType = "accepted"
	EventSyncFailed EventType = "sync_failed"
	EventCleared    EventType = "cleared"
)

// Event represents a pipeline event to be exported to external systems.
// Cleared events carry a zero Record.
type Event struct {
	Type       EventType         `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	Record     record.ScanRecord `json:"record"`
}

// Sink is a destination for audit events (analytics/statistics systems).
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}
