package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugepage-labs/blockcore/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the configuration blockctl would run with",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if jsonOut {
		return printJSON(cfg)
	}

	printInfo("arena count:          %d\n", cfg.ArenaCount)
	printInfo("metadata slot chunk:   %d\n", cfg.MetadataSlotChunk)
	printInfo("log level:             %s\n", cfg.LogLevel)
	printInfo("log json:              %t\n", cfg.LogJSON)
	return nil
}
