package output

import (
	"bufio"
	"io"
	"sync"

	"gopkg.in/yaml.v3"
)

// YAMLWriter buffers entries and writes them as a YAML list on Flush.
type YAMLWriter struct {
	mu    sync.Mutex
	w     *bufio.Writer
	items []any
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{
		w:     bufio.NewWriter(w),
		items: make([]any, 0),
	}
}

// Write buffers a single entry.
func (w *YAMLWriter) Write(data any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = append(w.items, data)
	return nil
}

// WriteAll buffers multiple entries.
func (w *YAMLWriter) WriteAll(data []any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = append(w.items, data...)
	return nil
}

// Flush writes the buffered entries as a YAML list and resets the buffer.
func (w *YAMLWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.items) == 0 {
		return w.w.Flush()
	}

	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)
	if err := encoder.Encode(w.items); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	w.items = w.items[:0]

	return w.w.Flush()
}

// Close flushes the writer.
func (w *YAMLWriter) Close() error {
	return w.Flush()
}
