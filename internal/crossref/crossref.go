// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crossref queries the Crossref works API.
package crossref

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/doi-audit/internal/httputil"
	"github.com/pdiddy/doi-audit/internal/resolver"
	"github.com/pdiddy/doi-audit/pkg/types"
)

// apiBase is the Crossref works endpoint. Declared as a var so tests can
// substitute httptest servers.
var apiBase = "https://api.crossref.org/works/"

// plusTokenHeader carries the Metadata Plus token.
const plusTokenHeader = "Crossref-Plus-API-Token"

// Client fetches works records from the Crossref API.
type Client struct {
	http *http.Client
	cfg  types.RetrievalConfig
}

// NewClient returns a Client using httpClient for transport. The client's
// timeout bounds every request.
func NewClient(httpClient *http.Client, cfg types.RetrievalConfig) *Client {
	return &Client{http: httpClient, cfg: cfg}
}

// Fetch retrieves the raw works record for doi. The identifier is cleaned
// of doi: prefixes and resolver URL wrappers first. Non-200 statuses are
// recorded in the result rather than returned as errors; only transport
// failures (timeout, DNS, connection) populate the Err field. Throttled
// responses are retried through httputil.DoWithRetry.
func (c *Client) Fetch(ctx context.Context, doi string) types.RetrievalResult {
	res := types.RetrievalResult{DOI: doi}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+resolver.Clean(doi), nil)
	if err != nil {
		res.Err = fmt.Sprintf("creating request: %v", err)
		return res
	}
	if c.cfg.APIToken != "" {
		req.Header.Set(plusTokenHeader, "Bearer "+c.cfg.APIToken)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	defer resp.Body.Close()

	res.HTTPStatus = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return res
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Err = fmt.Sprintf("reading response: %v", err)
		return res
	}
	res.RawResponse = string(body)
	return res
}
