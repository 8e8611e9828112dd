// ABOUTME: Counts command displaying cached per-feed unread/total counters
// ABOUTME: Optionally refreshes the baseline from live feeds before display

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/readstate/internal/baseline"
	"github.com/harper/readstate/internal/config"
)

var countsCmd = &cobra.Command{
	Use:     "counts",
	Aliases: []string{"c"},
	Short:   "Show per-feed unread counts",
	Long:    "Show cached per-feed unread/total counts, optionally refreshing the baseline from configured feed URLs first",
	RunE: func(cmd *cobra.Command, args []string) error {
		refresh, _ := cmd.Flags().GetBool("refresh")
		urls, _ := cmd.Flags().GetStringSlice("url")

		if refresh {
			if len(urls) == 0 {
				urls = cfg.FeedURLs
			}
			if len(urls) == 0 {
				return fmt.Errorf("no feed URLs configured: set feed_urls in config or pass --url")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			refreshed, usedFallback := manager.RefreshBaseline(ctx, baseline.NewFeedSource(urls))
			if usedFallback {
				color.Yellow("Baseline refresh failed, showing cached counts\n")
			} else {
				fmt.Printf("Refreshed baseline for %d feeds\n\n", refreshed)
			}
		}

		states := manager.AllCounterStates()
		if len(states) == 0 {
			fmt.Println("No counters cached. Mark something read or run 'readstate counts --refresh'.")
			return nil
		}

		bold := color.New(color.Bold).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()

		for _, state := range states {
			unread := fmt.Sprintf("%d", state.UnreadCount)
			if state.UnreadCount == 0 {
				unread = green("0")
			}
			fmt.Printf("%s  unread %s / total %d  %s\n",
				bold(truncateID(state.FeedID)),
				unread,
				state.TotalCount,
				faint(state.LastUpdated.Format(config.DateFormatShort)),
			)
		}

		fmt.Printf("\nTotal unread: %s\n", bold(fmt.Sprintf("%d", manager.TotalUnread())))
		return nil
	},
}

func truncateID(id string) string {
	if len(id) <= config.FeedIDDisplayWidth {
		return id
	}
	return id[:config.FeedIDDisplayWidth] + "…"
}

func init() {
	rootCmd.AddCommand(countsCmd)

	countsCmd.Flags().BoolP("refresh", "r", false, "refresh the baseline from feed URLs before display")
	countsCmd.Flags().StringSlice("url", nil, "feed URL(s) for --refresh (default: feed_urls from config)")
}
