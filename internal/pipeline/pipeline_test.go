package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/doi-audit/pkg/types"
)

// fakeRetriever returns canned results per DOI and panics on request.
type fakeRetriever struct {
	results map[string]types.RetrievalResult
	panicOn string
	calls   []string
}

func (f *fakeRetriever) Fetch(_ context.Context, doi string) types.RetrievalResult {
	f.calls = append(f.calls, doi)
	if doi == f.panicOn {
		panic("retriever blew up")
	}
	if res, ok := f.results[doi]; ok {
		return res
	}
	return types.RetrievalResult{DOI: doi, HTTPStatus: 200, RawResponse: "{}"}
}

type fakeResolver struct {
	results map[string]types.ResolutionResult
	calls   []string
}

func (f *fakeResolver) Resolve(_ context.Context, doi string) types.ResolutionResult {
	f.calls = append(f.calls, doi)
	if res, ok := f.results[doi]; ok {
		return res
	}
	return types.ResolutionResult{DOI: doi, ResolvedURL: "https://example.org/" + doi, HTTPStatus: 200}
}

// collectWriter records outcomes and optionally fails.
type collectWriter struct {
	rows    []types.RowOutcome
	failOn  string
	nextErr error
}

func (c *collectWriter) WriteRow(o types.RowOutcome) error {
	if c.failOn != "" && o.DOI == c.failOn {
		return c.nextErr
	}
	c.rows = append(c.rows, o)
	return nil
}

func TestRunOneRowPerDOIInOrder(t *testing.T) {
	dois := []string{"10.1000/a", "10.1000/b", "10.1000/c"}
	ret := &fakeRetriever{}
	res := &fakeResolver{}
	out := &collectWriter{}
	var buf bytes.Buffer

	summary, err := Run(context.Background(), dois, ret, res, out, Options{Retrieve: true, Resolve: true}, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(out.rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(out.rows))
	}
	for i, doi := range dois {
		if out.rows[i].DOI != doi {
			t.Errorf("row %d DOI = %q, want %q", i, out.rows[i].DOI, doi)
		}
		if out.rows[i].Status() != types.StatusOK {
			t.Errorf("row %d status = %q, want ok", i, out.rows[i].Status())
		}
	}
	if summary.OK != 3 || summary.Failed != 0 || summary.Total() != 3 {
		t.Errorf("summary = %+v", summary)
	}
	if !strings.Contains(buf.String(), "Batch summary:") {
		t.Error("output should contain batch summary")
	}
}

func TestRunFailuresDoNotAbortBatch(t *testing.T) {
	dois := []string{"10.1000/bad", "10.1000/good"}
	ret := &fakeRetriever{
		results: map[string]types.RetrievalResult{
			"10.1000/bad": {DOI: "10.1000/bad", HTTPStatus: 404},
		},
	}
	out := &collectWriter{}
	var buf bytes.Buffer

	summary, err := Run(context.Background(), dois, ret, nil, out, Options{Retrieve: true}, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(out.rows) != 2 {
		t.Fatalf("got %d rows, want 2: the batch must continue past failures", len(out.rows))
	}
	if out.rows[0].Status() != types.StatusNotFound {
		t.Errorf("row 0 status = %q, want not_found", out.rows[0].Status())
	}
	if out.rows[1].Status() != types.StatusOK {
		t.Errorf("row 1 status = %q, want ok", out.rows[1].Status())
	}
	if summary.Failed != 1 || summary.OK != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.ByStatus[types.StatusNotFound] != 1 {
		t.Errorf("ByStatus = %v", summary.ByStatus)
	}
}

func TestRunNoOperationsEnabled(t *testing.T) {
	dois := []string{"10.1000/a", "10.1000/b"}
	out := &collectWriter{}
	var buf bytes.Buffer

	summary, err := Run(context.Background(), dois, nil, nil, out, Options{}, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(out.rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(out.rows))
	}
	for i, row := range out.rows {
		if row.Status() != types.StatusSkipped {
			t.Errorf("row %d status = %q, want skipped", i, row.Status())
		}
		if row.Retrieval != nil || row.Resolution != nil {
			t.Errorf("row %d should carry no operation results", i)
		}
	}
	if summary.Skipped != 2 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRunPanicConfinedToRow(t *testing.T) {
	dois := []string{"10.1000/boom", "10.1000/fine"}
	ret := &fakeRetriever{panicOn: "10.1000/boom"}
	out := &collectWriter{}
	var buf bytes.Buffer

	summary, err := Run(context.Background(), dois, ret, nil, out, Options{Retrieve: true}, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(out.rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(out.rows))
	}
	if out.rows[0].Status() != types.StatusError {
		t.Errorf("row 0 status = %q, want error", out.rows[0].Status())
	}
	if out.rows[1].Status() != types.StatusOK {
		t.Errorf("row 1 status = %q, want ok", out.rows[1].Status())
	}
	if summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if !strings.Contains(buf.String(), "unexpected failure") {
		t.Error("output should warn about the unexpected failure")
	}
}

func TestRunThrottlesBetweenRows(t *testing.T) {
	dois := []string{"10.1000/a", "10.1000/b", "10.1000/c"}
	ret := &fakeRetriever{}
	out := &collectWriter{}
	var buf bytes.Buffer

	start := time.Now()
	_, err := Run(context.Background(), dois, ret, nil, out, Options{Retrieve: true, Sleep: 50 * time.Millisecond}, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Two inter-row waits of 50ms each.
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("elapsed = %v, want at least 100ms", elapsed)
	}
}

func TestRunNoThrottleWithoutOperations(t *testing.T) {
	dois := []string{"a", "b", "c", "d", "e"}
	out := &collectWriter{}
	var buf bytes.Buffer

	start := time.Now()
	_, err := Run(context.Background(), dois, nil, nil, out, Options{Sleep: time.Second}, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("elapsed = %v: throttling should be off when no network operations run", elapsed)
	}
}

func TestRunWriterErrorAborts(t *testing.T) {
	wantErr := errors.New("disk full")
	dois := []string{"10.1000/a", "10.1000/b"}
	ret := &fakeRetriever{}
	out := &collectWriter{failOn: "10.1000/a", nextErr: wantErr}
	var buf bytes.Buffer

	_, err := Run(context.Background(), dois, ret, nil, out, Options{Retrieve: true}, &buf)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Run error = %v, want %v", err, wantErr)
	}
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := &collectWriter{}
	_, err := Run(ctx, []string{"10.1000/a"}, &fakeRetriever{}, nil, out, Options{Retrieve: true}, &bytes.Buffer{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if len(out.rows) != 0 {
		t.Errorf("got %d rows, want 0", len(out.rows))
	}
}

func TestRunProgressOutput(t *testing.T) {
	var buf bytes.Buffer
	out := &collectWriter{}
	_, err := Run(context.Background(), []string{"10.1000/a"}, &fakeRetriever{}, &fakeResolver{}, out, Options{Retrieve: true, Resolve: true}, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, want := range []string{"processing: 10.1000/a", "retrieved: 10.1000/a", "resolved: 10.1000/a"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}
