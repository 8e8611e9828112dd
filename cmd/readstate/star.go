// ABOUTME: Star command toggling the star flag on an article
// ABOUTME: Queues the toggle without affecting unread counts

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var starCmd = &cobra.Command{
	Use:   "star <article-id> <feed-id>",
	Short: "Toggle the star on an article",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result := manager.ToggleStar(args[0], args[1])
		if !result.Success {
			return fmt.Errorf("failed to toggle star: %s", args[0])
		}

		fmt.Printf("Toggled star: %s (%v)\n", args[0], result.ResponseTime)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(starCmd)
}
