package record

import (
	"fmt"
	"testing"
)

func TestNewAssignsIDAndTimestamp(t *testing.T) {
	r := New("ABC123")
	if r.ID == "" {
		t.Fatalf("expected non-empty id")
	}
	if r.Payload != "ABC123" {
		t.Fatalf("unexpected payload: %q", r.Payload)
	}
	if r.ObservedAt.IsZero() {
		t.Fatalf("expected observed_at to be set")
	}
	r2 := New("ABC123")
	if r.ID == r2.ID {
		t.Fatalf("expected distinct ids, both %q", r.ID)
	}
}

func TestPushNewestFirst(t *testing.T) {
	var h History
	h = h.Push(ScanRecord{ID: "1", Payload: "first"})
	h = h.Push(ScanRecord{ID: "2", Payload: "second"})
	if len(h) != 2 {
		t.Fatalf("expected 2 records, got %d", len(h))
	}
	if h[0].Payload != "second" || h[1].Payload != "first" {
		t.Fatalf("expected newest-first order, got %+v", h)
	}
}

func TestPushTruncatesOldest(t *testing.T) {
	var h History
	for i := 0; i < MaxItems+10; i++ {
		h = h.Push(ScanRecord{ID: fmt.Sprintf("%d", i), Payload: fmt.Sprintf("p%d", i)})
	}
	if len(h) != MaxItems {
		t.Fatalf("expected history capped at %d, got %d", MaxItems, len(h))
	}
	// Newest entry survives at the head, oldest surviving entry at the tail.
	if h[0].Payload != fmt.Sprintf("p%d", MaxItems+9) {
		t.Fatalf("unexpected head: %+v", h[0])
	}
	if h[MaxItems-1].Payload != fmt.Sprintf("p%d", 10) {
		t.Fatalf("unexpected tail: %+v", h[MaxItems-1])
	}
}

func TestPushDoesNotMutateReceiver(t *testing.T) {
	var h History
	h = h.Push(ScanRecord{ID: "1", Payload: "a"})
	h2 := h.Push(ScanRecord{ID: "2", Payload: "b"})
	if len(h) != 1 {
		t.Fatalf("receiver mutated: %+v", h)
	}
	if len(h2) != 2 {
		t.Fatalf("expected 2 records, got %d", len(h2))
	}
}

func TestClone(t *testing.T) {
	var h History
	h = h.Push(ScanRecord{ID: "1", Payload: "a"})
	c := h.Clone()
	c[0].Payload = "changed"
	if h[0].Payload != "a" {
		t.Fatalf("clone shares backing array with original")
	}
	if History(nil).Clone() != nil {
		t.Fatalf("clone of nil should be nil")
	}
}
