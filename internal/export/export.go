// Package export renders the scan history into a shareable flat-text form.
package export

import (
	"strings"

	"github.com/scanpipe/scanpipe/internal/record"
)

// EmptyText is emitted when there is nothing to export. The formatter never
// returns an empty blob.
const EmptyText = "no scans recorded"

const timeLayout = "2006-01-02 15:04:05 MST"

// Format renders h newest-first, one timestamp line and one payload line per
// record, records separated by a blank line. Pure function, deterministic for
// a given history.
func Format(h record.History) string {
	if len(h) == 0 {
		return EmptyText + "\n"
	}
	var b strings.Builder
	for i, rec := range h {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(rec.ObservedAt.UTC().Format(timeLayout))
		b.WriteString("\n")
		b.WriteString(rec.Payload)
		b.WriteString("\n")
	}
	return b.String()
}
