package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "blockctl",
	Short: "Drive a block arena from the command line",
	Long: `blockctl grows huge-page-backed arenas, reserves and releases
pages against them, and reports the resulting state. It reads its
defaults from BLOCKCORE_* environment variables (see the status
subcommand).`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output machine-readable JSON")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printInfo(format string, args ...any) {
	if !jsonOut {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}
