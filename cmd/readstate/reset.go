// ABOUTME: Reset command invoking the emergency circuit breaker
// ABOUTME: Best-effort wipe of queue, counters, and monitor state with confirmation

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Emergency reset of all local state",
	Long: `Best-effort wipe of the pending queue, counter cache, and performance
monitor. Use when the durable store misbehaves beyond recovery (for
example repeated quota errors). Unflushed mutations are lost.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		if !force {
			fmt.Print("This discards all pending mutations. Continue? [y/N] ")
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Scan()
			answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
			if answer != "y" && answer != "yes" {
				fmt.Println("Aborted")
				return nil
			}
		}

		manager.EmergencyReset()
		color.Green("Local state reset")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolP("force", "f", false, "skip confirmation")
}
