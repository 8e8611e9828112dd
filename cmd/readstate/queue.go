// ABOUTME: Queue command for inspecting and clearing the pending mutation queue
// ABOUTME: Shows each entry's article, feed, action, and age

package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:     "queue",
	Aliases: []string{"q"},
	Short:   "Inspect the pending mutation queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		clear, _ := cmd.Flags().GetBool("clear")

		if clear {
			if err := manager.ClearQueue(); err != nil {
				return fmt.Errorf("failed to clear queue: %w", err)
			}
			fmt.Println("Queue cleared")
			return nil
		}

		entries := manager.QueueEntries()
		stats := manager.QueueStats()

		if len(entries) == 0 {
			fmt.Println("Queue is empty")
		} else {
			faint := color.New(color.Faint).SprintFunc()
			cyan := color.New(color.FgCyan).SprintFunc()

			for _, entry := range entries {
				age := time.Since(time.UnixMilli(entry.Timestamp)).Round(time.Second)
				fmt.Printf("%s  %s  feed %s  %s\n",
					cyan(entry.Action),
					entry.ArticleID,
					entry.FeedID,
					faint(fmt.Sprintf("%v ago", age)),
				)
			}
		}

		fmt.Printf("\n%d pending", stats.Count)
		if !stats.StorageAvailable {
			color.Yellow("  (durable storage unavailable)")
		} else {
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queueCmd)

	queueCmd.Flags().Bool("clear", false, "drop all pending entries without touching counters")
}
