package diag

import (
	"fmt"
	"strings"
)

// FormatShort renders diagnostics one per line:
//
//	<severity> <CODE> <location> <message>
//
// Notes follow their diagnostic as "note" lines when includeNotes is set.
// Diagnostics are rendered in the given order; call Bag.Sort first for a
// stable result. The output has no trailing newline.
func FormatShort(items []Diagnostic, includeNotes bool) string {
	var b strings.Builder
	for i, d := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeLine(&b, d.Severity.Label(), d.Code, d.Primary, d.Message)
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			b.WriteByte('\n')
			writeLine(&b, "note", d.Code, n.Loc, n.Msg)
		}
	}
	return b.String()
}

func writeLine(b *strings.Builder, sev string, code Code, loc Location, msg string) {
	where := loc.String()
	if where == "" {
		where = "-"
	}
	fmt.Fprintf(b, "%s %s %s %s", sev, code.ID(), where, sanitizeMessage(msg))
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
