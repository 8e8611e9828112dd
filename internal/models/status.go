// ABOUTME: Sync status enum for the periodic flush loop
// ABOUTME: Reported through the system status snapshot

package models

// SyncStatus tracks the state of the periodic flush to the backend.
type SyncStatus int

const (
	SyncIdle SyncStatus = iota
	SyncInProgress
	SyncDone
	SyncError
)

func (s SyncStatus) String() string {
	switch s {
	case SyncIdle:
		return "idle"
	case SyncInProgress:
		return "syncing"
	case SyncDone:
		return "synced"
	case SyncError:
		return "error"
	}
	return "unknown"
}
