package analyze

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/postclean/internal/store"
	"github.com/jmylchreest/postclean/pkg/cleaner/scrub"
)

// RowReport is the scan result for one stored row.
type RowReport struct {
	ID       int64        `json:"id" yaml:"id"`
	Title    string       `json:"title" yaml:"title"`
	Bytes    int          `json:"bytes" yaml:"bytes"`
	Issues   scrub.Counts `json:"issues" yaml:"issues"`
	Residue  []string     `json:"residue,omitempty" yaml:"residue,omitempty"`
	NeedsRun bool         `json:"needs_cleaning" yaml:"needs_cleaning"`
}

// Summary aggregates the row reports of one analyze or verify pass.
type Summary struct {
	Total         int          `json:"total" yaml:"total"`
	NeedsCleaning int          `json:"needs_cleaning" yaml:"needs_cleaning"`
	WithResidue   int          `json:"with_residue" yaml:"with_residue"`
	Bytes         int          `json:"bytes" yaml:"bytes"`
	Issues        scrub.Counts `json:"issues" yaml:"issues"`
	Rows          []RowReport  `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Rows scans every row. At most limit row reports are kept in the summary
// (all of them when limit <= 0), but the totals cover every row. Only rows
// that need cleaning or carry residue are kept.
func Rows(rows []store.Row, limit int) *Summary {
	summary := &Summary{Issues: make(scrub.Counts)}

	for _, row := range rows {
		body := row.Body()
		report := RowReport{
			ID:       row.ID,
			Title:    row.Title,
			Bytes:    len(body),
			Issues:   Scan(body),
			Residue:  Residue(body),
			NeedsRun: NeedsCleaning(body),
		}

		summary.Total++
		summary.Bytes += report.Bytes
		for category, n := range report.Issues {
			summary.Issues.Add(category, n)
		}
		if report.NeedsRun {
			summary.NeedsCleaning++
		}
		if len(report.Residue) > 0 {
			summary.WithResidue++
		}

		if !report.NeedsRun && len(report.Residue) == 0 {
			continue
		}
		if limit <= 0 || len(summary.Rows) < limit {
			summary.Rows = append(summary.Rows, report)
		}
	}
	return summary
}

// String renders the summary for terminal output.
func (s *Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Rows: %d (%s)\n", s.Total, humanize.Bytes(uint64(s.Bytes)))
	fmt.Fprintf(&sb, "Need cleaning: %d\n", s.NeedsCleaning)
	fmt.Fprintf(&sb, "With residue: %d\n", s.WithResidue)

	if len(s.Issues) > 0 {
		sb.WriteString("Issues:\n")
		for _, category := range sortedKeys(s.Issues) {
			fmt.Fprintf(&sb, "  %-15s %d\n", category, s.Issues[category])
		}
	}
	return sb.String()
}

// String renders one row report as a single line.
func (r RowReport) String() string {
	parts := make([]string, 0, len(r.Issues))
	for _, category := range sortedKeys(r.Issues) {
		parts = append(parts, fmt.Sprintf("%s=%d", category, r.Issues[category]))
	}
	line := fmt.Sprintf("#%d %q %s", r.ID, truncate(r.Title, 50), strings.Join(parts, ", "))
	if len(r.Residue) > 0 {
		line += " residue=" + strings.Join(r.Residue, "|")
	}
	return line
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
