// Package manifest persists the per-playlist record of mirrored tracks.
//
// Each playlist owns one TOML file under the store root, named by [FileName]:
//
//	title = "Road Trip"
//
//	[[tracks]]
//	id = "abc123"
//	title = "Song"
//	artists = ["A", "B"]
//	album = "Album"
//
// Writes go through a temp file and rename so a crash never leaves a half-written manifest, and
// [Store.Lock] serializes read-modify-write cycles across processes.
package manifest
