// Package input reads DOI lists from CSV files and samples them.
package input

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strings"
)

const doiColumn = "doi"

// ReadDOIs opens path and returns the values of the doi column in file
// order. The header match is case-insensitive; extra columns are ignored.
// Rows with an empty doi value are skipped with a warning on w.
func ReadDOIs(path string, w io.Writer) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()
	return readDOIs(f, w)
}

func readDOIs(r io.Reader, w io.Writer) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	idx := -1
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), doiColumn) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("input is missing a %q column", doiColumn)
	}

	var dois []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		var doi string
		if idx < len(rec) {
			doi = strings.TrimSpace(rec[idx])
		}
		if doi == "" {
			fmt.Fprintln(w, "warning: row without DOI, skipping")
			continue
		}
		dois = append(dois, doi)
	}
	return dois, nil
}

// Sample selects n entries at random, preserving input order among the
// selected rows so the output contract stays stable. When n is zero,
// negative, or at least len(dois), the input is returned unchanged.
// Passing a seeded rng makes the sample reproducible.
func Sample(dois []string, n int, rng *rand.Rand) []string {
	if n <= 0 || n >= len(dois) {
		return dois
	}

	idx := rng.Perm(len(dois))[:n]
	sort.Ints(idx)

	out := make([]string, 0, n)
	for _, i := range idx {
		out = append(out, dois[i])
	}
	return out
}
