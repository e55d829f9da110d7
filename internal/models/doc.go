// Package models defines the domain entities for the spotsync playlist mirror.
//
// The package contains two categories of types:
//
// 1. Sync values: plain structs passed between the fetcher, diff engine, downloader and manifest store
//   - [Track] : a remote track identified by its Spotify ID
//   - [Manifest] : the ordered, deduplicated list of tracks mirrored locally for one playlist
//   - [PlaylistRef] : a remote playlist handle returned by the listing endpoint
//
// 2. Persistent Entities: database-backed history of sync cycles
//   - [SyncRun] : one full pass over every playlist
//   - [PlaylistRun] : the outcome of a single playlist within a [SyncRun]
//
// [SyncRun] implements [Model]; its outcomes are stored with it.
// The [Repository] interface defines the storage operations for them.
package models
