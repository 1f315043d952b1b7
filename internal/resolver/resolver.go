// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolver resolves DOIs to their target URLs by following the
// doi.org redirect chain.
package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/pdiddy/doi-audit/pkg/types"
)

// doiBase is the DOI resolver endpoint. Declared as a var so tests can
// substitute httptest servers.
var doiBase = "https://doi.org/"

// doiPattern matches DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/[^\s]+$`)

// wrapperPrefixes are stripped from identifiers before resolution, so
// "doi:10.1000/x" and "https://doi.org/10.1000/x" both normalize to the
// bare DOI.
var wrapperPrefixes = []string{
	"doi:",
	"DOI:",
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
}

// Clean trims an identifier and strips resolver URL wrappers and "doi:"
// prefixes. Identifiers that carry no wrapper pass through unchanged.
func Clean(identifier string) string {
	s := strings.TrimSpace(identifier)
	for _, prefix := range wrapperPrefixes {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	return s
}

// Normalize cleans an identifier and reports whether the remainder looks
// like a DOI.
func Normalize(identifier string) (string, bool) {
	s := Clean(identifier)
	return s, doiPattern.MatchString(s)
}

// Resolver follows doi.org redirects to publisher landing pages.
type Resolver struct {
	http      *http.Client
	userAgent string
}

// New returns a Resolver using client for transport. The client must
// follow redirects (the default policy) and carry a finite timeout.
func New(client *http.Client, userAgent string) *Resolver {
	return &Resolver{http: client, userAgent: userAgent}
}

// Resolve cleans the identifier, performs a GET against the resolver
// endpoint and records the final URL after all redirects. 4xx/5xx terminal
// responses, timeouts and DNS failures are recorded in the result, never
// returned as errors.
func (r *Resolver) Resolve(ctx context.Context, doi string) types.ResolutionResult {
	res := types.ResolutionResult{DOI: doi}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doiBase+Clean(doi), nil)
	if err != nil {
		res.Err = fmt.Sprintf("creating request: %v", err)
		return res
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	defer resp.Body.Close()

	// Only the final URL matters; drain so the connection is reused.
	io.Copy(io.Discard, resp.Body)

	res.HTTPStatus = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		res.Err = fmt.Sprintf("HTTP %d from resolver", resp.StatusCode)
		return res
	}

	res.ResolvedURL = resp.Request.URL.String()
	return res
}
