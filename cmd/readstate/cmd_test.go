// ABOUTME: Tests for CLI commands
// ABOUTME: Tests command structure, flags, and subcommands

package main

import (
	"testing"
)

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "readstate" {
		t.Errorf("expected Use to be 'readstate', got %q", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("expected root command to have a short description")
	}
}

func TestRootPersistentFlags(t *testing.T) {
	if rootCmd.PersistentFlags().Lookup("backend") == nil {
		t.Error("expected --backend flag to exist")
	}
	if rootCmd.PersistentFlags().Lookup("data-dir") == nil {
		t.Error("expected --data-dir flag to exist")
	}
}

func TestMarkReadCommand(t *testing.T) {
	if markReadCmd.Use != "mark-read <article-id> <feed-id>" {
		t.Errorf("expected Use to be 'mark-read <article-id> <feed-id>', got %q", markReadCmd.Use)
	}

	// Check flags exist
	if markReadCmd.Flags().Lookup("feed") == nil {
		t.Error("expected --feed flag to exist")
	}
}

func TestMarkUnreadCommand(t *testing.T) {
	if markUnreadCmd.Use != "mark-unread <article-id> <feed-id>" {
		t.Errorf("expected Use to be 'mark-unread <article-id> <feed-id>', got %q", markUnreadCmd.Use)
	}
}

func TestStarCommand(t *testing.T) {
	if starCmd.Use != "star <article-id> <feed-id>" {
		t.Errorf("expected Use to be 'star <article-id> <feed-id>', got %q", starCmd.Use)
	}
}

func TestCountsCommand(t *testing.T) {
	if countsCmd.Use != "counts" {
		t.Errorf("expected Use to be 'counts', got %q", countsCmd.Use)
	}
	if len(countsCmd.Aliases) == 0 {
		t.Error("expected counts command to have aliases")
	}

	// Check flags exist
	if countsCmd.Flags().Lookup("refresh") == nil {
		t.Error("expected --refresh flag to exist")
	}
	if countsCmd.Flags().Lookup("url") == nil {
		t.Error("expected --url flag to exist")
	}
}

func TestQueueCommand(t *testing.T) {
	if queueCmd.Use != "queue" {
		t.Errorf("expected Use to be 'queue', got %q", queueCmd.Use)
	}
	if len(queueCmd.Aliases) == 0 {
		t.Error("expected queue command to have aliases")
	}
	if queueCmd.Flags().Lookup("clear") == nil {
		t.Error("expected --clear flag to exist")
	}
}

func TestStatusCommand(t *testing.T) {
	if statusCmd.Use != "status" {
		t.Errorf("expected Use to be 'status', got %q", statusCmd.Use)
	}

	// Check flags exist
	if statusCmd.Flags().Lookup("json") == nil {
		t.Error("expected --json flag to exist")
	}
	if statusCmd.Flags().Lookup("report") == nil {
		t.Error("expected --report flag to exist")
	}
}

func TestSyncCommand(t *testing.T) {
	if syncCmd.Use != "sync" {
		t.Errorf("expected Use to be 'sync', got %q", syncCmd.Use)
	}
	if syncCmd.Flags().Lookup("no-baseline") == nil {
		t.Error("expected --no-baseline flag to exist")
	}
}

func TestResetCommand(t *testing.T) {
	if resetCmd.Use != "reset" {
		t.Errorf("expected Use to be 'reset', got %q", resetCmd.Use)
	}
	if resetCmd.Flags().Lookup("force") == nil {
		t.Error("expected --force flag to exist")
	}
}

func TestMCPCommand(t *testing.T) {
	if mcpCmd.Use != "mcp" {
		t.Errorf("expected Use to be 'mcp', got %q", mcpCmd.Use)
	}
}

func TestCommandRegistration(t *testing.T) {
	// Check that subcommands are registered
	commands := rootCmd.Commands()

	commandNames := make(map[string]bool)
	for _, cmd := range commands {
		commandNames[cmd.Name()] = true
	}

	expectedCommands := []string{
		"mark-read",
		"mark-unread",
		"star",
		"counts",
		"queue",
		"status",
		"sync",
		"reset",
		"mcp",
		"version",
	}

	for _, expected := range expectedCommands {
		if !commandNames[expected] {
			t.Errorf("expected command %q to be registered", expected)
		}
	}
}
