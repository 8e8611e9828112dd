// ABOUTME: Mark-unread command for restoring articles to unread
// ABOUTME: Single-article counterpart of mark-read

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var markUnreadCmd = &cobra.Command{
	Use:   "mark-unread <article-id> <feed-id>",
	Short: "Mark an article as unread",
	Long:  "Mark an article as unread, incrementing its feed's unread counter",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result := manager.MarkArticleUnread(args[0], args[1])
		if !result.Success {
			return fmt.Errorf("failed to mark article as unread: %s", args[0])
		}

		fmt.Printf("Marked as unread: %s (%v)\n", args[0], result.ResponseTime)
		if result.Pending {
			fmt.Println("Note: durable storage unavailable, change is memory-only until the next flush")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(markUnreadCmd)
}
