// ABOUTME: Root Cobra command and global flags
// ABOUTME: Builds the state manager from config and owns its lifecycle

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/readstate/internal/config"
	"github.com/harper/readstate/internal/state"
	"github.com/harper/readstate/internal/storage"
)

var (
	backendFlag string
	dataDirFlag string

	cfg     *config.Config
	kvStore storage.KV
	manager *state.Manager
)

var rootCmd = &cobra.Command{
	Use:   "readstate",
	Short: "Optimistic read-state cache for RSS readers",
	Long: `Optimistic read-state cache for RSS readers.

Mark articles read or unread instantly against a local counter cache
while mutations accumulate in a bounded durable queue, flushed to the
authoritative backend in batches. Expose the cache to AI agents via MCP.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if backendFlag != "" {
			cfg.Backend = backendFlag
		}
		if dataDirFlag != "" {
			cfg.DataDir = dataDirFlag
		}

		kvStore, err = cfg.OpenKV()
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}

		manager = state.NewManager(kvStore, state.Options{
			MaxQueueEntries: cfg.MaxQueueEntries,
			LedgerCapacity:  cfg.LedgerCapacity,
			BaselineTTL:     cfg.BaselineTTL(),
			FlushInterval:   cfg.FlushInterval(),
		})
		manager.Initialize()
		manager.Reconcile()

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if manager != nil {
			manager.Cleanup()
		}
		if kvStore != nil {
			if err := kvStore.Close(); err != nil {
				return fmt.Errorf("failed to close storage: %w", err)
			}
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend: charm, sqlite, or memory (default from config)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory for the sqlite backend (default: ~/.local/share/readstate)")
}
