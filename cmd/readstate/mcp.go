// ABOUTME: MCP command starting the stdio server for AI agents
// ABOUTME: Exposes mark/counts/status/sync tools over the Model Context Protocol

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/readstate/internal/baseline"
	"github.com/harper/readstate/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: `Start a Model Context Protocol server on stdio, exposing mark_read,
mark_unread, toggle_star, batch_mark_read, get_counts, get_queue,
get_status, and sync_database tools plus readstate:// resources.

Add to an MCP client configuration:
  {"command": "readstate", "args": ["mcp"]}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var source baseline.Source
		if len(cfg.FeedURLs) > 0 {
			source = baseline.NewFeedSource(cfg.FeedURLs)
		}

		server := mcp.NewServer(manager, source)
		if err := server.ServeStdio(); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
