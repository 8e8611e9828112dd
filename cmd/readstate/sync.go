// ABOUTME: Sync command rebasing local state onto the authoritative backend
// ABOUTME: Clears the queue and ledger, then optionally re-applies baseline counts

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/readstate/internal/baseline"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rebase local state onto the backend",
	Long: `Clear the pending queue and processed ledger, reset counters and
performance tracking, then re-apply authoritative per-feed counts from
the configured feed URLs.

Run this after the backend has confirmed a batch flush, or to recover
from local drift.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		skipBaseline, _ := cmd.Flags().GetBool("no-baseline")

		if err := manager.SyncWithDatabase(); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		color.Green("Local state rebased")

		if skipBaseline || len(cfg.FeedURLs) == 0 {
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		refreshed, usedFallback := manager.RefreshBaseline(ctx, baseline.NewFeedSource(cfg.FeedURLs))
		if usedFallback {
			color.Yellow("Baseline refresh failed, cached counters kept")
			return nil
		}

		fmt.Printf("Refreshed baseline for %d feeds\n", refreshed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Bool("no-baseline", false, "skip the baseline refresh after the reset")
}
