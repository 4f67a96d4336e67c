// Package output writes bulk cleaning reports.
//
// A report is a sequence of records (one per processed row, plus an optional
// summary) serialized as a JSON array, JSON lines or a YAML list. All writers
// are safe for concurrent use so batch workers can report as rows complete.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// Formats lists the supported report formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatJSONL, FormatYAML}
}

// ParseFormat resolves a format name, case-insensitively. "yml" is
// accepted as an alias for yaml.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatJSON, FormatJSONL, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", name)
	}
}

// Writer handles report serialization.
type Writer interface {
	// Write records a single report entry.
	Write(data any) error

	// WriteAll records multiple entries.
	WriteAll(data []any) error

	// Flush ensures all data is written.
	Flush() error

	// Close flushes and releases resources.
	Close() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty bool
	indent string
}

// WithPretty enables pretty-printing.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return NewJSONWriter(w, cfg.pretty, cfg.indent), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Create opens a report destination. A path of "" or "-" writes to stdout,
// which is never closed. Otherwise the file is created (or truncated) and
// closed together with the returned writer.
func Create(path string, format Format, opts ...WriterOption) (Writer, error) {
	if path == "" || path == "-" {
		return NewWriter(os.Stdout, format, opts...)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating report %s: %w", path, err)
	}

	w, err := NewWriter(f, format, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &fileWriter{Writer: w, file: f}, nil
}

// fileWriter closes the underlying file after the wrapped writer.
type fileWriter struct {
	Writer
	file *os.File
}

func (w *fileWriter) Close() error {
	err := w.Writer.Close()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}
