package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spotsync/internal/manifest"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
)

var (
	_ list.Item = manifestItem{}
	_ list.Item = trackItem{}
)

// manifestItem wraps [manifest.Entry] to implement [list.Item].
type manifestItem struct {
	entry manifest.Entry
}

func (i manifestItem) FilterValue() string { return i.entry.Title }
func (i manifestItem) Title() string       { return i.entry.Title }
func (i manifestItem) Description() string {
	if i.entry.Err != nil {
		return styles.err.Render("unreadable: " + i.entry.Err.Error())
	}
	return fmt.Sprintf("%d tracks • updated %s", i.entry.Tracks, shared.RelativeTime(i.entry.ModTime))
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title + " " + i.track.Artist() }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist()
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}
