// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantDOI bool
	}{
		{"bare doi", "10.1145/1234567.1234568", "10.1145/1234567.1234568", true},
		{"nature doi", "10.1038/s41586-024-07487-w", "10.1038/s41586-024-07487-w", true},
		{"doi prefix", "doi:10.1000/xyz", "10.1000/xyz", true},
		{"uppercase prefix", "DOI:10.1000/xyz", "10.1000/xyz", true},
		{"resolver url", "https://doi.org/10.1000/xyz", "10.1000/xyz", true},
		{"legacy resolver url", "http://dx.doi.org/10.1000/xyz", "10.1000/xyz", true},
		{"whitespace trimmed", "  10.1000/xyz  ", "10.1000/xyz", true},
		{"not a doi", "not-a-doi", "not-a-doi", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if ok != tt.wantDOI {
				t.Errorf("Normalize(%q) ok = %v, want %v", tt.input, ok, tt.wantDOI)
			}
		})
	}
}

// overrideDOIBase points the package at a test server and returns a
// cleanup function that restores the original.
func overrideDOIBase(tsURL string) func() {
	orig := doiBase
	doiBase = tsURL + "/doi/"
	return func() { doiBase = orig }
}

func TestResolveFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/doi/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, ts.URL+"/intermediate", http.StatusFound)
	})
	mux.HandleFunc("/intermediate", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, ts.URL+"/article/42", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/article/42", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>landing page</html>")
	})

	restore := overrideDOIBase(ts.URL)
	defer restore()

	r := New(ts.Client(), "doi-audit-test/0.1")
	res := r.Resolve(context.Background(), "10.1000/redirecting")

	if !res.OK() {
		t.Fatalf("Resolve failed: status=%d err=%q", res.HTTPStatus, res.Err)
	}
	if want := ts.URL + "/article/42"; res.ResolvedURL != want {
		t.Errorf("ResolvedURL = %q, want %q", res.ResolvedURL, want)
	}
	if res.HTTPStatus != http.StatusOK {
		t.Errorf("HTTPStatus = %d, want 200", res.HTTPStatus)
	}
}

func TestResolveCleansIdentifier(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, "ok")
	}))
	defer ts.Close()
	restore := overrideDOIBase(ts.URL)
	defer restore()

	r := New(ts.Client(), "")
	res := r.Resolve(context.Background(), "doi:10.1000/xyz")

	if gotPath != "/doi/10.1000/xyz" {
		t.Errorf("requested path %q, want %q", gotPath, "/doi/10.1000/xyz")
	}
	if !res.OK() {
		t.Errorf("Resolve failed: status=%d err=%q", res.HTTPStatus, res.Err)
	}
	// The result echoes the identifier as given.
	if res.DOI != "doi:10.1000/xyz" {
		t.Errorf("DOI = %q, want the input identifier", res.DOI)
	}
}

func TestResolveTerminalError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()
	restore := overrideDOIBase(ts.URL)
	defer restore()

	r := New(ts.Client(), "")
	res := r.Resolve(context.Background(), "10.1000/broken")

	if res.OK() {
		t.Fatal("Resolve should fail on terminal 404")
	}
	if res.ResolvedURL != "" {
		t.Errorf("ResolvedURL = %q, want empty", res.ResolvedURL)
	}
	if res.HTTPStatus != http.StatusNotFound {
		t.Errorf("HTTPStatus = %d, want 404", res.HTTPStatus)
	}
}

func TestResolveTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	restore := overrideDOIBase(ts.URL)
	defer restore()
	ts.Close() // connection refused from here on

	r := New(&http.Client{Timeout: time.Second}, "")
	res := r.Resolve(context.Background(), "10.1000/x")

	if res.Err == "" {
		t.Fatal("expected a transport error")
	}
	if res.OK() {
		t.Error("Resolve should not be OK on transport failure")
	}
}

func TestResolveSendsUserAgent(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, "ok")
	}))
	defer ts.Close()
	restore := overrideDOIBase(ts.URL)
	defer restore()

	r := New(ts.Client(), "doi-audit/0.1 (mailto:user@example.org)")
	r.Resolve(context.Background(), "10.1000/x")

	if gotUA != "doi-audit/0.1 (mailto:user@example.org)" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}
