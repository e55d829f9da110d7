// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI browses the local manifests and can trigger a sync cycle on demand:
//  1. [ManifestListView] : Browse local manifests with track counts and last update
//  2. [TrackListView] : Inspect the tracks recorded in one manifest
//  3. [ConfirmView] : Confirm running a sync cycle now
//  4. [SyncView] : Monitor real-time progress updates
//  5. [ResultView] : Display per-playlist download counts and failures
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the sync engine, providing non-blocking status reporting during a cycle.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
