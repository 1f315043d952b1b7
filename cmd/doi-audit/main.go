// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the doi-audit CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doi-audit/internal/journal"
	"github.com/pdiddy/doi-audit/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedCreds holds Crossref credentials loaded from .secrets/ at startup.
var loadedCreds secrets.Credentials

// orSecret returns value if set, falling back to the loaded secret.
func orSecret(value, secret string) string {
	if value != "" {
		return value
	}
	return secret
}

// rootCmd is the base command for the doi-audit CLI.
var rootCmd = &cobra.Command{
	Use:   "doi-audit",
	Short: "Batch auditing of DOI metadata and resolution",
	Long: `doi-audit processes CSV files of DOIs: it can retrieve each DOI's
metadata record from the Crossref works API, resolve each DOI to its
publisher landing page via doi.org redirects, and write a per-row status
report. Runs are throttled between requests and recorded in a local
run journal.

The main workflow is the process subcommand; lookup and resolve handle
single identifiers ad hoc, and runs lists past processing runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		creds, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedCreds = creds
		if !creds.IsZero() {
			var keys []string
			if creds.PlusToken != "" {
				keys = append(keys, secrets.KeyPlusToken)
			}
			if creds.Mailto != "" {
				keys = append(keys, secrets.KeyMailto)
			}
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./doi-audit.yaml or ~/.config/doi-audit/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("doi-audit")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "doi-audit"))
		}
	}

	viper.SetDefault("journal_path", journal.DefaultPath)

	viper.SetEnvPrefix("DOI_AUDIT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
