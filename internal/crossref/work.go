// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crossref

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Crossref works API JSON structures.
type workEnvelope struct {
	Message Work `json:"message"`
}

// Work is the subset of a Crossref works record the lookup command reads.
type Work struct {
	DOI       string       `json:"DOI"`
	Title     []string     `json:"title"`
	Publisher string       `json:"publisher"`
	URL       string       `json:"URL"`
	Author    []workAuthor `json:"author"`
	Issued    workDate     `json:"issued"`
}

type workAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type workDate struct {
	DateParts [][]int `json:"date-parts"`
}

// ParseWork decodes a raw works API response body.
func ParseWork(data []byte) (*Work, error) {
	var env workEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing Crossref response: %w", err)
	}
	return &env.Message, nil
}

// PrimaryTitle returns the first title, or empty when the record has none.
func (w *Work) PrimaryTitle() string {
	if len(w.Title) == 0 {
		return ""
	}
	return w.Title[0]
}

// AuthorNames returns "Given Family" strings for each author.
func (w *Work) AuthorNames() []string {
	var names []string
	for _, a := range w.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// IssuedDate returns the issued date, truncated to whatever precision
// the record carries. The zero time means no date.
func (w *Work) IssuedDate() time.Time {
	if len(w.Issued.DateParts) == 0 || len(w.Issued.DateParts[0]) == 0 {
		return time.Time{}
	}
	parts := w.Issued.DateParts[0]
	year, month, day := parts[0], 1, 1
	if len(parts) >= 2 {
		month = parts[1]
	}
	if len(parts) >= 3 {
		day = parts[2]
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
