// Package ndjson implements bulk export of patient cohorts as newline
// delimited JSON, the format used by FHIR Bulk Data Access.
package ndjson

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
)

// Writer writes resources in NDJSON format. Each resource is serialised
// as a single JSON line followed by a newline. Writer is safe for
// concurrent use; a line is never interleaved with another.
type Writer struct {
	mu sync.Mutex
	w  *bufio.Writer
	n  int
}

// NewWriter creates a Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteResource serialises resource as one JSON line. The resource can be
// any value marshallable by encoding/json.
func (w *Writer) WriteResource(resource interface{}) error {
	data, err := json.Marshal(resource)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(data); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	w.n++
	return nil
}

// Count returns the number of lines written so far.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

// Flush flushes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Flush()
}
