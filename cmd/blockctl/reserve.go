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

var reserveCmd = &cobra.Command{
	Use:   "reserve <pages>",
	Short: "Grow one arena, reserve a page run from it, and report the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pages, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("pages must be an integer: %w", err)
		}
		return runReserve(pages)
	},
}

func init() {
	rootCmd.AddCommand(reserveCmd)
}

type reserveReport struct {
	BlockAddress     string `json:"block_address"`
	PageIndex        int    `json:"page_index"`
	Pages            int    `json:"pages"`
	UsedCount        int    `json:"used_count"`
	LongestFreeRange int    `json:"longest_free_range"`
}

func runReserve(pages int) error {
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

	index := d.Reserve(pages)
	report := reserveReport{
		BlockAddress:     fmt.Sprintf("%#x", d.Address),
		PageIndex:        index,
		Pages:            pages,
		UsedCount:        d.UsedCount,
		LongestFreeRange: d.LongestFreeRange,
	}

	if jsonOut {
		return printJSON(report)
	}
	printInfo("block:               %s\n", report.BlockAddress)
	printInfo("reserved page index: %d\n", report.PageIndex)
	printInfo("pages:               %d\n", report.Pages)
	printInfo("used pages:          %d\n", report.UsedCount)
	printInfo("longest free range:  %d\n", report.LongestFreeRange)
	return nil
}
