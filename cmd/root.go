//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var outputFormat string

// rootCmd is the base command for the tradestream CLI. All subcommands
// are registered as children of this command.
var rootCmd = &cobra.Command{
	Use:   "tradestream",
	Short: "Real-time trade streaming, statistics, and signal aggregation",
	Long:  "tradestream ingests a real-time trade feed from Finnhub or Polygon, fans it out to rolling statistics, indicator engines, a view model, and downstream publishers.",
}

// Execute runs the root command and exits with a non-zero status code
// if any error occurs during command execution.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// init registers persistent flags and loads environment variables from
// the .env file if present. The output flag controls whether the
// streamed snapshots are rendered as a table or raw JSON.
func init() {
	cobra.OnInitialize(loadEnv)
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")
}

// loadEnv attempts to load environment variables from a .env file in
// the current working directory. Errors are silently ignored since the
// .env file is optional.
func loadEnv() {
	_ = godotenv.Load()
}
