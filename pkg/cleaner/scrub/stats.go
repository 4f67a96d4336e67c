package scrub

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Issue categories recorded by the stages.
const (
	IssueEntities      = "entities"
	IssueShortcodes    = "shortcodes"
	IssueScriptTags    = "script_tags"
	IssueStyleTags     = "style_tags"
	IssueIframes       = "iframes"
	IssueObjects       = "objects"
	IssueForms         = "forms"
	IssueFormControls  = "form_controls"
	IssueEmbeds        = "embeds"
	IssueMetaTags      = "meta_tags"
	IssueComments      = "comments"
	IssueEventHandlers = "event_handlers"
	IssueInlineStyles  = "inline_styles"
	IssueCSSResidue    = "css_residue"
	IssueArtifacts     = "artifacts"
	IssueMalformedHTML = "malformed_html"
	IssueSemanticTags  = "semantic_tags"
	IssueWrapped       = "wrapped"
)

// Counts maps an issue category to the number of occurrences handled.
type Counts map[string]int

// Add increments a category by n. Non-positive values are ignored.
func (c Counts) Add(category string, n int) {
	if n <= 0 {
		return
	}
	c[category] += n
}

// Total returns the sum of all categories.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Stats captures metrics about what the cleaner did.
type Stats struct {
	// Size metrics
	InputBytes  int `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes int `json:"output_bytes" yaml:"output_bytes"`

	// Issues found and fixed, keyed by category
	Issues Counts `json:"issues" yaml:"issues"`

	// Stage passes, incremented when the safety guard reruns stages
	Passes int `json:"passes" yaml:"passes"`

	// Timing
	Duration time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// NewStats creates a new Stats instance with initialized maps.
func NewStats() *Stats {
	return &Stats{
		Issues: make(Counts),
	}
}

// Record adds n occurrences of an issue category.
func (s *Stats) Record(category string, n int) {
	if s.Issues == nil {
		s.Issues = make(Counts)
	}
	s.Issues.Add(category, n)
}

// RecordCounts adds every category in counts.
func (s *Stats) RecordCounts(counts Counts) {
	for category, n := range counts {
		s.Record(category, n)
	}
}

// Merge adds the sizes, counts and timing of other into s.
func (s *Stats) Merge(other *Stats) {
	if other == nil {
		return
	}
	s.InputBytes += other.InputBytes
	s.OutputBytes += other.OutputBytes
	s.Passes += other.Passes
	s.Duration += other.Duration
	s.RecordCounts(other.Issues)
}

// TotalIssues returns the sum of all recorded issues.
func (s *Stats) TotalIssues() int {
	return s.Issues.Total()
}

// ReductionPercent returns the percentage reduction in size.
func (s *Stats) ReductionPercent() float64 {
	if s.InputBytes == 0 {
		return 0
	}
	return float64(s.InputBytes-s.OutputBytes) / float64(s.InputBytes) * 100
}

// Categories returns the recorded categories in a stable order.
func (s *Stats) Categories() []string {
	names := make([]string, 0, len(s.Issues))
	for name := range s.Issues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Size: %d -> %d bytes (%.1f%% reduction)\n",
		s.InputBytes, s.OutputBytes, s.ReductionPercent()))

	sb.WriteString(fmt.Sprintf("Issues: %d fixed\n", s.TotalIssues()))

	if len(s.Issues) > 0 {
		sb.WriteString("By category: ")
		parts := make([]string, 0, len(s.Issues))
		for _, name := range s.Categories() {
			parts = append(parts, fmt.Sprintf("%s=%d", name, s.Issues[name]))
		}
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("\n")
	}

	if s.Passes > 1 {
		sb.WriteString(fmt.Sprintf("Passes: %d\n", s.Passes))
	}

	sb.WriteString(fmt.Sprintf("Timing: total=%v\n", s.Duration.Round(time.Microsecond)))

	return sb.String()
}

// Warning represents a non-fatal issue encountered during cleaning.
type Warning struct {
	Phase   string `json:"phase"`   // stage name or "pipeline"
	Message string `json:"message"` // Human-readable description
	Context string `json:"context"` // Fragment or value that caused the issue
}

// String returns a formatted warning message.
func (w Warning) String() string {
	if w.Context != "" {
		return fmt.Sprintf("[%s] %s (context: %s)", w.Phase, w.Message, w.Context)
	}
	return fmt.Sprintf("[%s] %s", w.Phase, w.Message)
}

// Result contains the output of a cleaning operation.
type Result struct {
	// Content is the cleaned output. On error it is empty, never the raw input.
	Content string `json:"content"`

	// Stats contains metrics about what was done.
	Stats *Stats `json:"stats"`

	// Warnings contains non-fatal issues encountered.
	Warnings []Warning `json:"warnings,omitempty"`

	// Error is set when a stage failed or the output could not be made safe.
	Error error `json:"-"`
}

// AddWarning adds a warning to the result.
func (r *Result) AddWarning(phase, message, context string) {
	r.Warnings = append(r.Warnings, Warning{
		Phase:   phase,
		Message: message,
		Context: context,
	})
}

// HasWarnings returns true if any warnings were recorded.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}
