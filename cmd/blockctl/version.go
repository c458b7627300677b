package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("blockctl %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
