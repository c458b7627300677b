package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugepage-labs/blockcore/arena"
	"github.com/hugepage-labs/blockcore/block"
	"github.com/hugepage-labs/blockcore/internal/config"
)

var benchIterations int

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a synthetic reserve/release workload and report timing",
	Long: `bench grows one arena and repeatedly reserves a random page run,
then releases a previously outstanding one, simulating steady-state
churn against a single block. It reports total elapsed time and the
arena's final occupancy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBench()
	},
}

func init() {
	benchCmd.Flags().IntVar(&benchIterations, "iterations", 10000, "number of reserve/release cycles")
	rootCmd.AddCommand(benchCmd)
}

type benchReport struct {
	Iterations  int           `json:"iterations"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	FinalUsed   int           `json:"final_used_pages"`
	BlocksGrown int           `json:"blocks_grown"`
}

func runBench() error {
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
	blocksGrown := 1

	type outstanding struct {
		index, pages int
	}
	var live []outstanding
	rng := rand.New(rand.NewSource(1))

	start := time.Now()
	for i := 0; i < benchIterations; i++ {
		if len(live) > 0 && (rng.Intn(2) == 0 || d.LongestFreeRange == 0) {
			j := rng.Intn(len(live))
			o := live[j]
			d.Release(o.index, o.pages)
			live = append(live[:j], live[j+1:]...)
			continue
		}

		pages := 1 + rng.Intn(8)
		if pages > d.LongestFreeRange {
			if d.Empty() {
				pages = d.LongestFreeRange
				if pages == 0 {
					continue
				}
			} else {
				continue
			}
		}
		index := d.Reserve(pages)
		live = append(live, outstanding{index: index, pages: pages})
	}
	elapsed := time.Since(start)

	report := benchReport{
		Iterations:  benchIterations,
		Elapsed:     elapsed,
		FinalUsed:   d.UsedCount,
		BlocksGrown: blocksGrown,
	}

	if jsonOut {
		return printJSON(report)
	}
	printInfo("iterations:     %d\n", report.Iterations)
	printInfo("elapsed:        %s\n", elapsed)
	printInfo("final used:     %d pages\n", report.FinalUsed)
	printInfo("pages/block:    %d\n", block.PagesInBlock)
	return nil
}
