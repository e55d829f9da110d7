// Package tasks mirrors remote playlists into local manifests with real-time progress reporting.
//
// # Cycle
//
// [PlaylistEngine.RunCycle] performs one pass over the user's playlists. For each one,
// [PlaylistEngine.SyncPlaylist]:
//
//  1. Locks the playlist's manifest file
//  2. Opens the manifest (creating an empty one when absent, rebuilding when unreadable)
//  3. Fetches the remote track list
//  4. Computes the [Missing] tracks by ID, in remote order
//  5. Downloads them through a [downloader.Pool]
//  6. Appends the successful downloads and saves the manifest if anything changed
//
// Playlists are isolated from each other: a failure is recorded in that playlist's [PlaylistResult]
// and the cycle continues. Authentication failures end the cycle since no later playlist can succeed.
//
// # Scheduling
//
// [Scheduler] drives the engine as a two-state machine ([StateRunningCycle], [StateWaiting]) over an
// injectable [Clock], so tests can advance time without sleeping.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # History
//
// The optional [Recorder] receives every [CycleReport]. Recording failures are logged and never fail the cycle.
package tasks
