package models

// Manifest is the persisted record of which tracks of a playlist are mirrored locally.
//
// Tracks keep insertion order and no two tracks share an ID once a manifest has passed through
// [Manifest.Append] or [Manifest.Dedupe].
type Manifest struct {
	Title  string  `toml:"title" json:"title"`
	Tracks []Track `toml:"tracks,omitempty" json:"tracks"`
}

// NewManifest returns an empty manifest for the playlist title.
func NewManifest(title string) *Manifest {
	return &Manifest{Title: title, Tracks: []Track{}}
}

// Len returns the number of tracks.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Tracks)
}

// IDs returns the track IDs in manifest order.
func (m *Manifest) IDs() []string {
	ids := make([]string, 0, m.Len())
	if m == nil {
		return ids
	}
	for _, t := range m.Tracks {
		ids = append(ids, t.ID)
	}
	return ids
}

// Contains reports whether a track with id is recorded.
func (m *Manifest) Contains(id string) bool {
	if m == nil {
		return false
	}
	for _, t := range m.Tracks {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Append returns a new manifest holding the existing tracks followed by added.
//
// Invalid tracks are skipped and the first occurrence of an ID wins, so appending a track that is
// already present is a no-op. The receiver is not modified.
func (m *Manifest) Append(added []Track) *Manifest {
	title := ""
	var existing []Track
	if m != nil {
		title = m.Title
		existing = m.Tracks
	}

	out := &Manifest{Title: title, Tracks: make([]Track, 0, len(existing)+len(added))}
	seen := make(map[string]struct{}, len(existing)+len(added))
	for _, group := range [][]Track{existing, added} {
		for _, t := range group {
			if !t.Valid() {
				continue
			}
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			out.Tracks = append(out.Tracks, t)
		}
	}
	return out
}

// Dedupe drops invalid tracks and repeated IDs in place, keeping the first occurrence.
// It reports how many tracks were removed.
func (m *Manifest) Dedupe() int {
	if m == nil {
		return 0
	}
	before := len(m.Tracks)
	m.Tracks = NewManifest(m.Title).Append(m.Tracks).Tracks
	return before - len(m.Tracks)
}
