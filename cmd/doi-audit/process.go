package main

import (
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doi-audit/internal/crossref"
	"github.com/pdiddy/doi-audit/internal/input"
	"github.com/pdiddy/doi-audit/internal/journal"
	"github.com/pdiddy/doi-audit/internal/output"
	"github.com/pdiddy/doi-audit/internal/pipeline"
	"github.com/pdiddy/doi-audit/internal/resolver"
	"github.com/pdiddy/doi-audit/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "doi-audit/0.1"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the DOI batch pipeline over an input CSV",
	Long: `Process reads the doi column from the input CSV and, per row, runs
the enabled operations: --retrieve fetches the Crossref works record,
--resolve follows doi.org redirects to the landing page. One output row
is written per input DOI with a status column; individual row failures
are recorded there and never abort the run.

Requests are spaced by --sleep seconds. Following Crossref etiquette,
the spacing is dropped when a Metadata Plus token is configured, since
the Plus tier enforces its own limits.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringP("input", "i", "", "path to input CSV (must contain a doi column)")
	processCmd.Flags().StringP("output", "o", "", "path to output CSV (created or overwritten)")
	processCmd.Flags().StringP("apikey", "k", "", "Crossref Metadata Plus token (default: .secrets/crossref-plus-token)")
	processCmd.Flags().StringP("user_agent", "u", "", "User-Agent for the polite pool, e.g. mailto:you@example.org (default: .secrets/crossref-mailto)")
	processCmd.Flags().IntP("sample_size", "s", 0, "process a random sample of N rows")
	processCmd.Flags().Int64("seed", 0, "random seed for --sample_size (default: time-based)")
	processCmd.Flags().Bool("retrieve", false, "retrieve metadata from the Crossref API")
	processCmd.Flags().Bool("resolve", false, "resolve each DOI via doi.org redirects")
	processCmd.Flags().Float64("sleep", 1.0, "seconds between requests")
	processCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	processCmd.Flags().String("report", "", "also write a YAML run summary to this path")
	processCmd.Flags().String("journal", "", "run journal database path (default doi-audit.db)")
	processCmd.Flags().Bool("no-journal", false, "do not record this run in the journal")
	processCmd.MarkFlagRequired("input")
	processCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	inPath, _ := cmd.Flags().GetString("input")
	outPath, _ := cmd.Flags().GetString("output")
	retrieve, _ := cmd.Flags().GetBool("retrieve")
	resolve, _ := cmd.Flags().GetBool("resolve")
	sampleSize, _ := cmd.Flags().GetInt("sample_size")
	sleepSecs, _ := cmd.Flags().GetFloat64("sleep")
	reportPath, _ := cmd.Flags().GetString("report")

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	apikey, _ := cmd.Flags().GetString("apikey")
	userAgent, _ := cmd.Flags().GetString("user_agent")
	userAgent = orSecret(userAgent, loadedCreds.Mailto)

	seed := time.Now().UnixNano()
	if cmd.Flags().Changed("seed") {
		seed, _ = cmd.Flags().GetInt64("seed")
	}

	cfg := types.PipelineConfig{
		Retrieval: types.RetrievalConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   timeout,
				UserAgent: orSecret(userAgent, defaultUserAgent),
			},
			APIToken: orSecret(apikey, loadedCreds.PlusToken),
		},
		Retrieve:   retrieve,
		Resolve:    resolve,
		SampleSize: sampleSize,
		Seed:       seed,
		Sleep:      time.Duration(sleepSecs * float64(time.Second)),
	}

	// Setup failures (missing file, missing column) abort with a
	// non-zero exit before any row is processed.
	dois, err := input.ReadDOIs(inPath, os.Stderr)
	if err != nil {
		return err
	}

	if cfg.SampleSize > 0 {
		dois = input.Sample(dois, cfg.SampleSize, rand.New(rand.NewSource(cfg.Seed)))
	}

	writer, err := output.NewWriter(outPath, cfg.Retrieve, cfg.Resolve)
	if err != nil {
		return err
	}
	defer writer.Close()

	client := &http.Client{Timeout: cfg.Retrieval.Timeout}
	retriever := crossref.NewClient(client, cfg.Retrieval)
	res := resolver.New(client, cfg.Retrieval.UserAgent)

	started := time.Now()
	summary, err := pipeline.Run(cmd.Context(), dois, retriever, res, writer,
		pipeline.Options{Retrieve: cfg.Retrieve, Resolve: cfg.Resolve, Sleep: cfg.Interval()}, os.Stdout)
	if err != nil {
		return err
	}

	// Row failures are visible in the output CSV; the run itself still
	// succeeded, so the exit code stays zero.

	if reportPath != "" {
		report := output.Report{
			Input:        inPath,
			Output:       outPath,
			Retrieve:     retrieve,
			Resolve:      resolve,
			SampleSize:   sampleSize,
			Rows:         summary.Total(),
			StatusCounts: summary.ByStatus,
			Timestamp:    started,
		}
		if err := output.WriteReport(reportPath, report); err != nil {
			return err
		}
	}

	recordRun(cmd, journal.Run{
		StartedAt:    started,
		InputPath:    inPath,
		OutputPath:   outPath,
		Retrieve:     retrieve,
		Resolve:      resolve,
		SampleSize:   sampleSize,
		Rows:         summary.Total(),
		OK:           summary.OK,
		Failed:       summary.Failed,
		Skipped:      summary.Skipped,
		StatusCounts: summary.ByStatus,
	})

	return nil
}

// recordRun appends the run to the journal. Journal problems are warnings;
// they never fail a run whose output is already on disk.
func recordRun(cmd *cobra.Command, run journal.Run) {
	if noJournal, _ := cmd.Flags().GetBool("no-journal"); noJournal {
		return
	}

	j, err := journal.Open(journalPath(cmd))
	if err != nil {
		cmd.PrintErrf("warning: journal unavailable: %v\n", err)
		return
	}
	defer j.Close()

	if err := j.Record(cmd.Context(), run); err != nil {
		cmd.PrintErrf("warning: could not record run: %v\n", err)
	}
}

// journalPath resolves the journal database location: flag first, then
// config/env, then the default.
func journalPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("journal"); path != "" {
		return path
	}
	return viper.GetString("journal_path")
}
