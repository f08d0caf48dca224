package model

import "time"

// Trigger identifies what started a synchronization pass.
type Trigger string

const (
	TriggerWebhook Trigger = "webhook"
	TriggerCompare Trigger = "compare"
)

// RunStatus is the admission-level outcome of a synchronization pass.
type RunStatus string

const (
	RunCompleted RunStatus = "completed" // Files were fetched and promoted.
	RunNoop      RunStatus = "noop"      // Nothing to do (wrong branch, no commits, not ahead).
	RunSkipped   RunStatus = "skipped"   // Deliberately not synced (too many commits, lookup failure).
)

// SyncRun is the persisted history record of one pass for one repository.
type SyncRun struct {
	ID         int64
	Trigger    Trigger
	Repo       string
	Ref        string
	Status     RunStatus
	Message    string
	Added      int
	Modified   int
	Removed    int
	Promoted   int
	Deleted    int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the pass took.
func (r SyncRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// SyncReport is the caller-facing outcome of a pass for one repository.
// Result is nil unless the pass reached the fetch stage.
type SyncReport struct {
	Repo    string
	Status  RunStatus
	Message string
	Result  *SyncResult
}
