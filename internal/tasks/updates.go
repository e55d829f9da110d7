package tasks

import (
	"fmt"

	"github.com/desertthunder/spotsync/internal/downloader"
	"github.com/desertthunder/spotsync/internal/models"
)

// ProgressUpdate represents a progress event during a sync cycle.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylists Phase = iota
	FetchTracks
	Compare
	Download
	SaveManifest
	PlaylistDone
	CycleDone
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchTracks:
		return "fetch_tracks"
	case Compare:
		return "compare"
	case Download:
		return "download"
	case SaveManifest:
		return "save_manifest"
	case PlaylistDone:
		return "playlist_done"
	case CycleDone:
		return "cycle_done"
	default:
		return ""
	}
}

func fetchPlaylistsUpdate(limit int) ProgressUpdate {
	msg := "Fetching playlists from Spotify..."
	if limit > 0 {
		msg = fmt.Sprintf("Fetching up to %d playlists from Spotify...", limit)
	}
	return ProgressUpdate{Phase: FetchPlaylists, Step: 0, Total: 1, Message: msg}
}

func fetchTracksUpdate(step, total int, ref models.PlaylistRef) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching %s...", step, total, ref.Name),
		Data:    ref,
	}
}

func compareUpdate(step, total int, name string, remote, missing int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %d remote, %d missing", step, total, name, remote, missing),
	}
}

func downloadUpdate(step, total int, out downloader.Outcome) ProgressUpdate {
	mark := "✓"
	if !out.OK() {
		mark = "✗"
	}
	tr := out.Request.Track
	return ProgressUpdate{
		Phase:   Download,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s - %s", step, total, mark, tr.Artist(), tr.Title),
		Data:    out,
	}
}

func saveManifestUpdate(name string, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Saved %s (%d tracks)", name, tracks),
	}
}

func playlistDoneUpdate(step, total int, res PlaylistResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s (%d downloaded)", step, total, res.Playlist.Name, len(res.Downloaded))
	if res.Err != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Playlist.Name, res.Err)
	}
	return ProgressUpdate{Phase: PlaylistDone, Step: step, Total: total, Message: msg, Data: res}
}

func cycleDoneUpdate(report *CycleReport) ProgressUpdate {
	downloaded, failed, errored := report.Totals()
	return ProgressUpdate{
		Phase:   CycleDone,
		Step:    len(report.Playlists),
		Total:   len(report.Playlists),
		Message: fmt.Sprintf("Cycle complete: %d downloaded, %d failed, %d playlist errors", downloaded, failed, errored),
		Data:    report,
	}
}
