package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of doi-audit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("doi-audit %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
