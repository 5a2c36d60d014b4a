package core

import (
	"fmt"
	"strings"
	"time"

	"zentrix.com/portal/portal/model"
)

// Digest renders the mispunch findings of a summary as a plain text
// message, one finding per line
func Digest(summary model.AttendanceSummary, month time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mispunch digest for %s: %d finding(s) across %d present day(s)\n",
		month.Format("January 2006"), summary.TotalMispunch, summary.TotalPresent)
	for _, m := range summary.Mispunches {
		fmt.Fprintf(&b, "- %s %s %s: %s (IN %d / OUT %d)\n", m.Employee, m.Date, m.Kind, m.Details, m.InCount, m.OutCount)
	}
	return strings.TrimRight(b.String(), "\n")
}
