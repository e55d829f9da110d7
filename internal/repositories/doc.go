// Package repositories implements SQLite persistence for sync history.
//
// Key Implementations:
//   - [SyncRunRepository] : One row per scheduler cycle, with per-playlist outcomes in playlist_runs
//   - [HistoryRecorder] : Adapts [SyncRunRepository] to tasks.Recorder so the engine records every cycle
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
