// ABOUTME: Status command aggregating the full system diagnostic snapshot
// ABOUTME: Plain, JSON, and glamour-rendered markdown report output

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status",
	Long:  "Show queue statistics, cached counters, performance readings, and the recent operation log",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		asReport, _ := cmd.Flags().GetBool("report")

		status := manager.GetSystemStatus()

		if asJSON {
			data, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		if asReport {
			rendered, err := glamour.Render(statusMarkdown(), "dark")
			if err != nil {
				// Fall back to plain output if rendering fails
				fmt.Print(statusMarkdown())
				return nil
			}
			fmt.Print(rendered)
			return nil
		}

		if status.StorageAvailable {
			color.Green("Durable storage available")
		} else {
			color.Yellow("Durable storage unavailable (memory-only mode)")
		}
		if status.FallbackMode {
			color.Yellow("Fallback mode recommended")
		}

		fmt.Printf("  Sync: %s\n", status.SyncStatus)
		fmt.Printf("  Queue: %d pending\n", status.Queue.Count)
		fmt.Printf("  Feeds cached: %d\n", len(status.Counters))
		fmt.Printf("  Total unread: %d\n", status.TotalUnread)

		p := status.Performance
		if p.Samples > 0 {
			fmt.Printf("  Avg response: %v over %d ops\n", p.AvgResponseTime, p.Samples)
		}
		if p.Healthy {
			color.Green("  Performance thresholds met")
		} else {
			for _, v := range p.Violations {
				color.Red("  %s", v)
			}
		}

		return nil
	},
}

func statusMarkdown() string {
	status := manager.GetSystemStatus()

	var b strings.Builder
	b.WriteString("# readstate status\n\n")
	fmt.Fprintf(&b, "- Sync: **%s**\n", status.SyncStatus)
	fmt.Fprintf(&b, "- Durable storage: **%v**\n", status.StorageAvailable)
	fmt.Fprintf(&b, "- Pending mutations: **%d**\n", status.Queue.Count)
	fmt.Fprintf(&b, "- Total unread: **%d**\n\n", status.TotalUnread)

	if len(status.Counters) > 0 {
		b.WriteString("## Feeds\n\n| Feed | Unread | Total |\n|---|---|---|\n")
		for _, c := range status.Counters {
			fmt.Fprintf(&b, "| %s | %d | %d |\n", c.FeedID, c.UnreadCount, c.TotalCount)
		}
		b.WriteString("\n")
	}

	p := status.Performance
	b.WriteString("## Performance\n\n")
	fmt.Fprintf(&b, "- Average response: %v (%d samples)\n", p.AvgResponseTime, p.Samples)
	fmt.Fprintf(&b, "- Memory growth: %d bytes\n", p.MemoryGrowth)
	if len(p.Violations) > 0 {
		b.WriteString("\n### Violations\n\n")
		for _, v := range p.Violations {
			fmt.Fprintf(&b, "- %s\n", v)
		}
	}

	if len(status.RecentOperations) > 0 {
		b.WriteString("\n## Recent operations\n\n")
		for _, op := range status.RecentOperations {
			fmt.Fprintf(&b, "- `%s` %s\n", op.Name, op.Outcome)
		}
	}

	return b.String()
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().Bool("json", false, "output as JSON")
	statusCmd.Flags().Bool("report", false, "render a markdown report")
}
