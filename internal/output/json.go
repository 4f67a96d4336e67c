package output

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
)

// JSONWriter buffers entries and writes them as one JSON array on Flush.
// The array form is kept for single-entry reports so consumers can always
// iterate the result.
type JSONWriter struct {
	mu     sync.Mutex
	w      *bufio.Writer
	pretty bool
	indent string
	items  []any
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
		indent: indent,
		items:  make([]any, 0),
	}
}

// Write buffers a single entry.
func (w *JSONWriter) Write(data any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = append(w.items, data)
	return nil
}

// WriteAll buffers multiple entries.
func (w *JSONWriter) WriteAll(data []any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = append(w.items, data...)
	return nil
}

// Flush writes the buffered entries as a JSON array and resets the buffer.
func (w *JSONWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.items) == 0 {
		return w.w.Flush()
	}

	var (
		data []byte
		err  error
	)
	if w.pretty {
		data, err = json.MarshalIndent(w.items, "", w.indent)
	} else {
		data, err = json.Marshal(w.items)
	}
	if err != nil {
		return err
	}

	if _, err := w.w.Write(data); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	w.items = w.items[:0]

	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONWriter) Close() error {
	return w.Flush()
}

// JSONLWriter streams one JSON object per line as entries arrive.
type JSONLWriter struct {
	mu  sync.Mutex
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{w: bw, enc: enc}
}

// Write writes a single entry as a JSON line.
func (w *JSONLWriter) Write(data any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.enc.Encode(data); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteAll writes multiple entries as JSON lines.
func (w *JSONLWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.Flush()
}
