// ABOUTME: Mark-read command for marking articles as read
// ABOUTME: Supports a single article or batch marking within one feed

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/readstate/internal/models"
)

var markReadCmd = &cobra.Command{
	Use:   "mark-read <article-id> <feed-id>",
	Short: "Mark articles as read",
	Long:  "Mark a single article as read, or use --feed with multiple article ids to batch-mark within one feed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		feedID, _ := cmd.Flags().GetString("feed")

		// Batch mode: all args are article ids within --feed
		if feedID != "" {
			refs := make([]models.ArticleRef, 0, len(args))
			for _, articleID := range args {
				refs = append(refs, models.ArticleRef{ArticleID: articleID, FeedID: feedID})
			}

			result := manager.BatchMarkRead(refs)
			if !result.Success {
				return fmt.Errorf("failed to mark %d articles as read", len(refs))
			}

			fmt.Printf("Marked %d articles as read in %v\n", len(refs), result.ResponseTime)
			if result.Pending {
				fmt.Println("Note: durable storage unavailable, changes are memory-only until the next flush")
			}
			return nil
		}

		if len(args) != 2 {
			return fmt.Errorf("provide <article-id> <feed-id>, or use --feed for batch marking")
		}

		result := manager.MarkArticleRead(args[0], args[1])
		if !result.Success {
			return fmt.Errorf("failed to mark article as read: %s", args[0])
		}

		fmt.Printf("Marked as read: %s (%v)\n", args[0], result.ResponseTime)
		if result.Pending {
			fmt.Println("Note: durable storage unavailable, change is memory-only until the next flush")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(markReadCmd)

	markReadCmd.Flags().StringP("feed", "f", "", "batch mode: mark all given article ids read within this feed")
}
