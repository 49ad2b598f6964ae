package model

import "time"

// SyncState is the lifecycle state of a CRM synchronisation.
type SyncState string

const (
	SyncIdle      SyncState = "idle"
	SyncSyncing   SyncState = "syncing"
	SyncCompleted SyncState = "completed"
	SyncError     SyncState = "error"
)

// Terminal reports whether no further transition happens without a new trigger.
func (s SyncState) Terminal() bool {
	return s == SyncCompleted || s == SyncError
}

// SyncResult records what a completed run changed.
type SyncResult struct {
	Changes map[string]int `json:"changes,omitempty"`
	Before  TableCounts    `json:"before,omitempty"`
	After   TableCounts    `json:"after,omitempty"`
	Skipped int            `json:"skipped,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// SyncRun is the last or current synchronisation run.
type SyncRun struct {
	ID           string      `json:"run_id,omitempty"`
	Status       SyncState   `json:"status"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	FinishedAt   *time.Time  `json:"finished_at,omitempty"`
	LastSyncedAt *time.Time  `json:"last_synced_at"`
	Result       *SyncResult `json:"result"`
}
