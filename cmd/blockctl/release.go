package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hugepage-labs/blockcore/arena"
	"github.com/hugepage-labs/blockcore/block"
	"github.com/hugepage-labs/blockcore/internal/config"
)

var releaseCmd = &cobra.Command{
	Use:   "release <pages>",
	Short: "Reserve a page run, release it, and confirm the block returns to empty",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pages, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("pages must be an integer: %w", err)
		}
		return runRelease(pages)
	},
}

func init() {
	rootCmd.AddCommand(releaseCmd)
}

type releaseReport struct {
	BlockAddress string `json:"block_address"`
	Pages        int    `json:"pages"`
	EmptyAfter   bool   `json:"empty_after"`
	Retired      bool   `json:"retired"`
}

func runRelease(pages int) error {
	if pages <= 0 || pages > block.PagesInBlock {
		return fmt.Errorf("pages must be in [1,%d], got %d", block.PagesInBlock, pages)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	a := arena.New(0, cfg.MetadataSlotChunk, cfg.MetadataSlotChunk, log)
	defer a.Close()

	ctx := context.Background()
	d, err := a.Grow(ctx)
	if err != nil {
		return fmt.Errorf("grow arena: %w", err)
	}

	addr := d.Address
	index := d.Reserve(pages)
	d.Release(index, pages)
	empty := d.Empty()

	retired, err := a.RetireEmpty(ctx, d)
	if err != nil {
		return fmt.Errorf("retire: %w", err)
	}

	report := releaseReport{
		BlockAddress: fmt.Sprintf("%#x", addr),
		Pages:        pages,
		EmptyAfter:   empty,
		Retired:      retired,
	}

	if jsonOut {
		return printJSON(report)
	}
	printInfo("block:       %s\n", report.BlockAddress)
	printInfo("pages:       %d\n", report.Pages)
	printInfo("empty after: %t\n", report.EmptyAfter)
	printInfo("retired:     %t\n", report.Retired)
	return nil
}
