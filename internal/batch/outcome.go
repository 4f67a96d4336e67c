package batch

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/postclean/pkg/cleaner/scrub"
)

// Status is the result of processing one row.
type Status string

const (
	StatusCleaned       Status = "cleaned"
	StatusUnchanged     Status = "unchanged"
	StatusSkipped       Status = "skipped"
	StatusFailed        Status = "failed"
	StatusPersistFailed Status = "persist_failed"
)

// Outcome records what happened to one row.
type Outcome struct {
	ID          int64        `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Status      Status       `json:"status" yaml:"status"`
	Reason      string       `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
	InputBytes  int          `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes int          `json:"output_bytes,omitempty" yaml:"output_bytes,omitempty"`
	Issues      scrub.Counts `json:"issues,omitempty" yaml:"issues,omitempty"`
	Persisted   bool         `json:"persisted" yaml:"persisted"`

	Stats *scrub.Stats `json:"-" yaml:"-"`
}

// Summary aggregates the outcomes of a run.
type Summary struct {
	mu sync.Mutex

	Total         int           `json:"total" yaml:"total"`
	Processed     int           `json:"processed" yaml:"processed"`
	Cleaned       int           `json:"cleaned" yaml:"cleaned"`
	Unchanged     int           `json:"unchanged" yaml:"unchanged"`
	Skipped       int           `json:"skipped" yaml:"skipped"`
	Failed        int           `json:"failed" yaml:"failed"`
	PersistFailed int           `json:"persist_failed" yaml:"persist_failed"`
	DryRun        bool          `json:"dry_run" yaml:"dry_run"`
	FailedIDs     []int64       `json:"failed_ids,omitempty" yaml:"failed_ids,omitempty"`
	Stats         *scrub.Stats  `json:"stats" yaml:"stats"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
}

func newSummary(total int, dryRun bool) *Summary {
	return &Summary{
		Total:  total,
		DryRun: dryRun,
		Stats:  scrub.NewStats(),
	}
}

// add folds one outcome into the summary.
func (s *Summary) add(o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Processed++
	switch o.Status {
	case StatusCleaned:
		s.Cleaned++
	case StatusUnchanged:
		s.Unchanged++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
		s.FailedIDs = append(s.FailedIDs, o.ID)
	case StatusPersistFailed:
		s.PersistFailed++
		s.FailedIDs = append(s.FailedIDs, o.ID)
	}
	if o.Stats != nil && o.Status != StatusFailed {
		s.Stats.Merge(o.Stats)
	}
}

// OK reports whether every processed row finished without error.
func (s *Summary) OK() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Failed == 0 && s.PersistFailed == 0
}

// String renders the summary for terminal output.
func (s *Summary) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sb strings.Builder
	if s.DryRun {
		sb.WriteString("Dry run: no rows were written\n")
	}
	fmt.Fprintf(&sb, "Total rows:      %d\n", s.Total)
	fmt.Fprintf(&sb, "Processed:       %d\n", s.Processed)
	fmt.Fprintf(&sb, "Cleaned:         %d\n", s.Cleaned)
	fmt.Fprintf(&sb, "Unchanged:       %d\n", s.Unchanged)
	fmt.Fprintf(&sb, "Skipped:         %d\n", s.Skipped)
	fmt.Fprintf(&sb, "Failed:          %d\n", s.Failed)
	fmt.Fprintf(&sb, "Persist failed:  %d\n", s.PersistFailed)
	if s.Stats != nil && s.Stats.InputBytes > 0 {
		fmt.Fprintf(&sb, "Content:         %s -> %s\n",
			humanize.Bytes(uint64(s.Stats.InputBytes)),
			humanize.Bytes(uint64(s.Stats.OutputBytes)))
		fmt.Fprintf(&sb, "Issues fixed:    %s\n", humanize.Comma(int64(s.Stats.TotalIssues())))
	}
	fmt.Fprintf(&sb, "Duration:        %v", s.Duration.Round(time.Millisecond))
	return sb.String()
}
