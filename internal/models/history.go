package models

import (
	"fmt"
	"time"
)

// RunStatus describes how a sync cycle or a single playlist within it ended.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunPartial   RunStatus = "partial"
	RunFailed    RunStatus = "failed"
)

// SyncRun is the persisted record of one scheduler cycle.
type SyncRun struct {
	id         string
	sequence   int
	status     RunStatus
	startedAt  time.Time
	finishedAt *time.Time
	errMsg     string
	createdAt  time.Time
	updatedAt  time.Time

	Playlists []*PlaylistRun
}

// NewSyncRun creates a running [SyncRun] started at startedAt.
func NewSyncRun(sequence int, startedAt time.Time) *SyncRun {
	now := time.Now()
	return &SyncRun{
		sequence:  sequence,
		status:    RunRunning,
		startedAt: startedAt,
		createdAt: now,
		updatedAt: now,
	}
}

func (r *SyncRun) ID() string             { return r.id }
func (r *SyncRun) Sequence() int          { return r.sequence }
func (r *SyncRun) Status() RunStatus      { return r.status }
func (r *SyncRun) StartedAt() time.Time   { return r.startedAt }
func (r *SyncRun) FinishedAt() *time.Time { return r.finishedAt }
func (r *SyncRun) Error() string          { return r.errMsg }
func (r *SyncRun) CreatedAt() time.Time   { return r.createdAt }
func (r *SyncRun) UpdatedAt() time.Time   { return r.updatedAt }

func (r *SyncRun) SetID(id string)            { r.id = id }
func (r *SyncRun) SetSequence(seq int)        { r.sequence = seq }
func (r *SyncRun) SetUpdatedAt(t time.Time)   { r.updatedAt = t }
func (r *SyncRun) SetCreatedAt(t time.Time)   { r.createdAt = t }
func (r *SyncRun) SetFinishedAt(t *time.Time) { r.finishedAt = t }
func (r *SyncRun) SetStatus(status RunStatus) { r.status = status }
func (r *SyncRun) SetError(msg string)        { r.errMsg = msg }
func (r *SyncRun) SetStartedAt(t time.Time)   { r.startedAt = t }

// Finish marks the run complete with the given status.
func (r *SyncRun) Finish(at time.Time, status RunStatus, errMsg string) {
	r.finishedAt = &at
	r.status = status
	r.errMsg = errMsg
	r.updatedAt = time.Now()
}

// Duration returns how long the run took, or zero while it is still running.
func (r *SyncRun) Duration() time.Duration {
	if r.finishedAt == nil {
		return 0
	}
	return r.finishedAt.Sub(r.startedAt)
}

// Totals sums the per-playlist download counts.
func (r *SyncRun) Totals() (downloaded, failed int) {
	for _, p := range r.Playlists {
		downloaded += p.Downloaded
		failed += p.Failed
	}
	return downloaded, failed
}

// Validate implements [Model].
func (r *SyncRun) Validate() error {
	switch r.status {
	case RunRunning, RunSucceeded, RunPartial, RunFailed:
	default:
		return fmt.Errorf("invalid run status %q", r.status)
	}
	if r.startedAt.IsZero() {
		return fmt.Errorf("started_at is required")
	}
	if r.finishedAt != nil && r.finishedAt.Before(r.startedAt) {
		return fmt.Errorf("finished_at precedes started_at")
	}
	return nil
}

// PlaylistRun is the outcome of syncing one playlist within a [SyncRun].
type PlaylistRun struct {
	RunID      string
	PlaylistID string
	Title      string
	Status     RunStatus
	Remote     int
	Missing    int
	Downloaded int
	Failed     int
	Error      string
	Duration   time.Duration
}
