package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests. For
	// Crossref's polite pool this should carry a contact address,
	// e.g. "mailto:user@example.org".
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RetrievalConfig holds settings for the Crossref retrieval stage.
type RetrievalConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIToken is an optional Crossref Metadata Plus token, sent as
	// "Crossref-Plus-API-Token: Bearer <token>".
	APIToken string `json:"api_token,omitempty" yaml:"api_token,omitempty"`
}

// PipelineConfig groups the settings for one processing run.
type PipelineConfig struct {
	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval"`

	// Retrieve enables Crossref API lookups per row.
	Retrieve bool `json:"retrieve" yaml:"retrieve"`

	// Resolve enables doi.org redirect resolution per row.
	Resolve bool `json:"resolve" yaml:"resolve"`

	// SampleSize limits processing to a random sample of N rows.
	// Zero processes every row.
	SampleSize int `json:"sample_size,omitempty" yaml:"sample_size,omitempty"`

	// Seed feeds the sampling RNG so a sample can be reproduced.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Sleep is the minimum interval between consecutive rows' network
	// operations. Zero disables throttling.
	Sleep time.Duration `json:"sleep" yaml:"sleep"`
}

// Interval returns the effective inter-row spacing. A Metadata Plus
// token disables client-side throttling, since the Plus tier enforces
// its own server-side limits.
func (c PipelineConfig) Interval() time.Duration {
	if c.Retrieval.APIToken != "" {
		return 0
	}
	return c.Sleep
}
