package models

import "strings"

// Placeholder values the remote API client substitutes for fields it could not resolve.
// A [Track] carrying any of them is never persisted or diffed.
const (
	TrackNotFound   = "Track not found"
	ArtistsNotFound = "Artists not found"
)

// Track is a single remote track. Identity is the Spotify ID alone: two tracks with the same ID
// are the same track even if their metadata differs.
type Track struct {
	ID      string   `toml:"id" json:"id"`
	Title   string   `toml:"title" json:"title"`
	Artists []string `toml:"artists" json:"artists"`
	Album   string   `toml:"album" json:"album"`
}

// Valid reports whether the track is fully resolved: an ID, a title and at least one named artist.
func (t Track) Valid() bool {
	if strings.TrimSpace(t.ID) == "" || strings.TrimSpace(t.Title) == "" {
		return false
	}
	if t.Title == TrackNotFound || t.Album == TrackNotFound {
		return false
	}
	named := 0
	for _, a := range t.Artists {
		if a == ArtistsNotFound {
			return false
		}
		if strings.TrimSpace(a) != "" {
			named++
		}
	}
	return named > 0
}

// Artist joins the track's artists for display.
func (t Track) Artist() string {
	return strings.Join(t.Artists, ", ")
}

// Query returns the free-text search string handed to the downloader: the title followed by every artist.
func (t Track) Query() string {
	parts := append([]string{t.Title}, t.Artists...)
	return strings.Join(parts, " ")
}

// PlaylistRef is a handle on a remote playlist. It is never persisted.
type PlaylistRef struct {
	ID         string
	Name       string
	TrackCount int
}
