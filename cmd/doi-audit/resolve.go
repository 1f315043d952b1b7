package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/doi-audit/internal/resolver"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [dois...]",
	Short: "Resolve DOIs to their landing page URLs",
	Long: `Resolve follows the doi.org redirect chain for each given DOI and
prints the final URL. Identifiers may be bare DOIs, doi: prefixed, or
full resolver URLs. Failures are reported per DOI; the command exits
non-zero if any DOI failed to resolve.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	resolveCmd.Flags().Duration("delay", time.Second, "delay between consecutive resolutions")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	delay, _ := cmd.Flags().GetDuration("delay")

	r := resolver.New(
		&http.Client{Timeout: timeout},
		orSecret(loadedCreds.Mailto, defaultUserAgent),
	)

	failed := 0
	for i, arg := range args {
		if i > 0 && delay > 0 {
			time.Sleep(delay)
		}

		doi, ok := resolver.Normalize(arg)
		if !ok {
			fmt.Fprintf(os.Stderr, "failed: %q does not look like a DOI\n", arg)
			failed++
			continue
		}

		res := r.Resolve(cmd.Context(), doi)
		if !res.OK() {
			fmt.Fprintf(os.Stderr, "failed: %s (%s)\n", doi, res.Reason())
			failed++
			continue
		}
		fmt.Printf("%s -> %s\n", doi, res.ResolvedURL)
	}

	if failed > 0 {
		return fmt.Errorf("%d DOI(s) failed to resolve", failed)
	}
	return nil
}
