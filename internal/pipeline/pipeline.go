// Package pipeline runs the sequential per-DOI processing loop.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/doi-audit/pkg/types"
)

// Retriever fetches the raw Crossref record for a DOI.
type Retriever interface {
	Fetch(ctx context.Context, doi string) types.RetrievalResult
}

// Resolver resolves a DOI to its target URL.
type Resolver interface {
	Resolve(ctx context.Context, doi string) types.ResolutionResult
}

// RowWriter consumes outcomes as rows are completed.
type RowWriter interface {
	WriteRow(types.RowOutcome) error
}

// Options controls which operations run and how rows are throttled.
type Options struct {
	// Retrieve enables the Crossref lookup per row.
	Retrieve bool

	// Resolve enables doi.org resolution per row.
	Resolve bool

	// Sleep is the minimum interval between consecutive rows' network
	// operations. Zero disables throttling.
	Sleep time.Duration
}

// Summary holds the outcome counts of one run.
type Summary struct {
	OK      int
	Failed  int
	Skipped int

	// ByStatus counts rows per status column value.
	ByStatus map[string]int
}

// Total returns the number of rows processed.
func (s Summary) Total() int {
	return s.OK + s.Failed + s.Skipped
}

// Run processes dois in order, one at a time. Per-row failures are
// recorded in the row's status and never abort the batch; only context
// cancellation and output-write failures stop the run early. Progress
// lines go to w.
func Run(ctx context.Context, dois []string, retriever Retriever, resolver Resolver, out RowWriter, opts Options, w io.Writer) (Summary, error) {
	summary := Summary{ByStatus: make(map[string]int)}

	var limiter *rate.Limiter
	if opts.Sleep > 0 && (opts.Retrieve || opts.Resolve) {
		// Burst 1 with a free initial token: waits land between rows,
		// spaced by at least opts.Sleep.
		limiter = rate.NewLimiter(rate.Every(opts.Sleep), 1)
	}

	for _, doi := range dois {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return summary, err
			}
		}

		fmt.Fprintf(w, "processing: %s\n", doi)
		outcome := processRow(ctx, doi, retriever, resolver, opts, w)

		status := outcome.Status()
		summary.ByStatus[status]++
		switch status {
		case types.StatusOK:
			summary.OK++
		case types.StatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}

		if err := out.WriteRow(outcome); err != nil {
			return summary, fmt.Errorf("writing row for %s: %w", doi, err)
		}
	}

	fmt.Fprintf(w, "\nBatch summary: %d ok, %d failed, %d skipped (total: %d)\n",
		summary.OK, summary.Failed, summary.Skipped, summary.Total())
	return summary, nil
}

// processRow runs the enabled operations for one DOI. A panic inside an
// operation is confined to the row and surfaced as a generic error status.
func processRow(ctx context.Context, doi string, retriever Retriever, resolver Resolver, opts Options, w io.Writer) (outcome types.RowOutcome) {
	outcome = types.RowOutcome{DOI: doi}
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(w, "  warning: unexpected failure for %s: %v\n", doi, r)
			outcome = types.RowOutcome{DOI: doi, Err: fmt.Sprint(r)}
		}
	}()

	if opts.Retrieve {
		res := retriever.Fetch(ctx, doi)
		outcome.Retrieval = &res
		if res.OK() {
			fmt.Fprintf(w, "  retrieved: %s\n", doi)
		} else {
			fmt.Fprintf(w, "  warning: retrieval failed for %s: %s\n", doi, res.Reason())
		}
	}

	if opts.Resolve {
		res := resolver.Resolve(ctx, doi)
		outcome.Resolution = &res
		if res.OK() {
			fmt.Fprintf(w, "  resolved: %s -> %s\n", doi, res.ResolvedURL)
		} else {
			fmt.Fprintf(w, "  warning: resolution failed for %s: %s\n", doi, res.Reason())
		}
	}

	return outcome
}
