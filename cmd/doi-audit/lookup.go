// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/doi-audit/internal/crossref"
	"github.com/pdiddy/doi-audit/internal/resolver"
	"github.com/pdiddy/doi-audit/pkg/types"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <doi>",
	Short: "Fetch Crossref metadata for a single DOI",
	Long: `Lookup fetches one DOI's works record from the Crossref API and prints
a metadata summary as YAML. Use --json to print the raw API response
instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().Bool("json", false, "print the raw JSON response")
	lookupCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")

	rootCmd.AddCommand(lookupCmd)
}

// lookupSummary is the YAML shape printed for a works record.
type lookupSummary struct {
	DOI       string   `yaml:"doi"`
	Title     string   `yaml:"title,omitempty"`
	Authors   []string `yaml:"authors,omitempty"`
	Issued    string   `yaml:"issued,omitempty"`
	Publisher string   `yaml:"publisher,omitempty"`
	URL       string   `yaml:"url,omitempty"`
}

func runLookup(cmd *cobra.Command, args []string) error {
	doi, ok := resolver.Normalize(args[0])
	if !ok {
		return fmt.Errorf("%q does not look like a DOI", args[0])
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	cfg := types.RetrievalConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: orSecret(loadedCreds.Mailto, defaultUserAgent),
		},
		APIToken: loadedCreds.PlusToken,
	}
	client := crossref.NewClient(&http.Client{Timeout: cfg.Timeout}, cfg)

	res := client.Fetch(cmd.Context(), doi)
	if !res.OK() {
		return fmt.Errorf("crossref lookup for %s failed: %s", doi, res.Reason())
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		fmt.Println(res.RawResponse)
		return nil
	}

	work, err := crossref.ParseWork([]byte(res.RawResponse))
	if err != nil {
		return err
	}

	summary := lookupSummary{
		DOI:       doi,
		Title:     work.PrimaryTitle(),
		Authors:   work.AuthorNames(),
		Publisher: work.Publisher,
		URL:       work.URL,
	}
	if issued := work.IssuedDate(); !issued.IsZero() {
		summary.Issued = issued.Format(time.DateOnly)
	}

	data, err := yaml.Marshal(&summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}
