// Package output writes pipeline results to CSV and run summaries to YAML.
package output

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/pdiddy/doi-audit/pkg/types"
)

// Writer streams result rows to a CSV file as they are produced. The
// column set depends on which operations the run enabled: doi, then
// api_response if retrieval is on, then resolved_url if resolution is
// on, then status.
type Writer struct {
	f        *os.File
	cw       *csv.Writer
	retrieve bool
	resolve  bool
}

// NewWriter creates (or truncates) path and writes the header row.
func NewWriter(path string, retrieve, resolve bool) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}

	w := &Writer{
		f:        f,
		cw:       csv.NewWriter(f),
		retrieve: retrieve,
		resolve:  resolve,
	}
	if err := w.cw.Write(w.header()); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}
	w.cw.Flush()
	if err := w.cw.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return w, nil
}

func (w *Writer) header() []string {
	h := []string{"doi"}
	if w.retrieve {
		h = append(h, "api_response")
	}
	if w.resolve {
		h = append(h, "resolved_url")
	}
	return append(h, "status")
}

// WriteRow appends one outcome and flushes, so completed rows survive an
// interrupted run.
func (w *Writer) WriteRow(o types.RowOutcome) error {
	rec := []string{o.DOI}
	if w.retrieve {
		var raw string
		if o.Retrieval != nil {
			raw = o.Retrieval.RawResponse
		}
		rec = append(rec, raw)
	}
	if w.resolve {
		var resolved string
		if o.Resolution != nil {
			resolved = o.Resolution.ResolvedURL
		}
		rec = append(rec, resolved)
	}
	rec = append(rec, o.Status())

	if err := w.cw.Write(rec); err != nil {
		return fmt.Errorf("writing row for %s: %w", o.DOI, err)
	}
	w.cw.Flush()
	if err := w.cw.Error(); err != nil {
		return fmt.Errorf("writing row for %s: %w", o.DOI, err)
	}
	return nil
}

// Close flushes remaining output and closes the file.
func (w *Writer) Close() error {
	w.cw.Flush()
	if err := w.cw.Error(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
