package export

import (
	"strings"
	"testing"
	"time"

	"github.com/scanpipe/scanpipe/internal/record"
)

func TestFormatEmpty(t *testing.T) {
	got := Format(nil)
	if got == "" {
		t.Fatalf("empty history must not yield empty blob")
	}
	if !strings.Contains(got, EmptyText) {
		t.Fatalf("expected %q indicator, got %q", EmptyText, got)
	}
}

func TestFormatNewestFirst(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	var h record.History
	h = h.Push(record.ScanRecord{ID: "1", Payload: "ABC123", ObservedAt: t0})
	h = h.Push(record.ScanRecord{ID: "2", Payload: "XYZ789", ObservedAt: t0.Add(5 * time.Second)})

	got := Format(h)
	want := "2025-06-01 10:00:05 UTC\nXYZ789\n\n2025-06-01 10:00:00 UTC\nABC123\n"
	if got != want {
		t.Fatalf("unexpected export:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestFormatDeterministic(t *testing.T) {
	var h record.History
	h = h.Push(record.ScanRecord{ID: "1", Payload: "p", ObservedAt: time.Unix(0, 0).UTC()})
	if Format(h) != Format(h) {
		t.Fatalf("format must be deterministic")
	}
}
