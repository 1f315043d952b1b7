// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"net/http"
	"strings"
)

// Status values for the output CSV status column. A row where both
// enabled operations fail carries the joined form
// "api_error,resolve_error"; a row that panicked carries StatusError.
const (
	StatusOK           = "ok"
	StatusSkipped      = "skipped"
	StatusNotFound     = "not_found"
	StatusAPIError     = "api_error"
	StatusResolveError = "resolve_error"
	StatusError        = "error"
)

// RetrievalResult is the outcome of one Crossref works lookup.
type RetrievalResult struct {
	DOI string `json:"doi" yaml:"doi"`

	// RawResponse is the response body text on HTTP 200, empty otherwise.
	RawResponse string `json:"raw_response,omitempty" yaml:"raw_response,omitempty"`

	// HTTPStatus is the response status code, zero when the request
	// never completed.
	HTTPStatus int `json:"http_status,omitempty" yaml:"http_status,omitempty"`

	// Err describes a transport failure (timeout, DNS, connection).
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the lookup returned a usable body.
func (r RetrievalResult) OK() bool {
	return r.Err == "" && r.HTTPStatus == http.StatusOK
}

// NotFound reports whether Crossref has no record for the DOI.
func (r RetrievalResult) NotFound() bool {
	return r.HTTPStatus == http.StatusNotFound
}

// Reason returns a human-readable failure description.
func (r RetrievalResult) Reason() string {
	if r.Err != "" {
		return r.Err
	}
	return fmt.Sprintf("HTTP %d", r.HTTPStatus)
}

// ResolutionResult is the outcome of one doi.org redirect resolution.
type ResolutionResult struct {
	DOI string `json:"doi" yaml:"doi"`

	// ResolvedURL is the final URL after following redirects, empty on failure.
	ResolvedURL string `json:"resolved_url,omitempty" yaml:"resolved_url,omitempty"`

	// HTTPStatus is the terminal response status code.
	HTTPStatus int `json:"http_status,omitempty" yaml:"http_status,omitempty"`

	// Err describes a transport failure or a terminal non-200 status.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the DOI resolved to a landing page.
func (r ResolutionResult) OK() bool {
	return r.Err == "" && r.ResolvedURL != ""
}

// Reason returns a human-readable failure description.
func (r ResolutionResult) Reason() string {
	if r.Err != "" {
		return r.Err
	}
	return fmt.Sprintf("HTTP %d", r.HTTPStatus)
}

// RowOutcome merges the per-operation results for one input DOI.
// Retrieval and Resolution are nil when the corresponding operation
// was not enabled for the run.
type RowOutcome struct {
	DOI        string
	Retrieval  *RetrievalResult
	Resolution *ResolutionResult

	// Err records an unexpected per-row failure that maps to no
	// single operation.
	Err string
}

// Status derives the status column value for the row. Crossref 404
// takes precedence over a simultaneous resolve failure.
func (o RowOutcome) Status() string {
	if o.Err != "" {
		return StatusError
	}
	if o.Retrieval == nil && o.Resolution == nil {
		return StatusSkipped
	}

	var failures []string
	if o.Retrieval != nil && !o.Retrieval.OK() {
		if o.Retrieval.NotFound() {
			return StatusNotFound
		}
		failures = append(failures, StatusAPIError)
	}
	if o.Resolution != nil && !o.Resolution.OK() {
		failures = append(failures, StatusResolveError)
	}
	if len(failures) == 0 {
		return StatusOK
	}
	return strings.Join(failures, ",")
}
