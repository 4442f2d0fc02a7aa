package record

import (
	"time"

	"github.com/google/uuid"
)

// MaxItems caps the retained history. Appending beyond the cap drops the
// oldest records first.
const MaxItems = 50

// ScanRecord is the persisted unit of one accepted scan. All fields are
// assigned at creation and never mutated afterwards.
type ScanRecord struct {
	ID         string    `json:"id"`
	Payload    string    `json:"payload"`
	ObservedAt time.Time `json:"observed_at"`
}

// New builds a ScanRecord for payload with a fresh ID and the current UTC time.
func New(payload string) ScanRecord {
	return ScanRecord{
		ID:         uuid.NewString(),
		Payload:    payload,
		ObservedAt: time.Now().UTC(),
	}
}

// History is the bounded, newest-first collection of retained records.
// It is treated as a value: Push returns a new slice and never mutates
// the receiver in place.
type History []ScanRecord

// Push prepends rec and truncates the tail beyond MaxItems.
func (h History) Push(rec ScanRecord) History {
	out := make(History, 0, min(len(h)+1, MaxItems))
	out = append(out, rec)
	for i := 0; i < len(h) && len(out) < MaxItems; i++ {
		out = append(out, h[i])
	}
	return out
}

// Clone returns an independent copy of h.
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	out := make(History, len(h))
	copy(out, h)
	return out
}
