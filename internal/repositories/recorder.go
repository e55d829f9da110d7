package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/tasks"
)

// HistoryRecorder implements tasks.Recorder using SyncRunRepository.
//
// Each cycle report becomes one sync_runs row plus a playlist_runs row per playlist, written in a single transaction.
type HistoryRecorder struct {
	repo *SyncRunRepository
}

// NewHistoryRecorder creates a new HistoryRecorder with the given repository
func NewHistoryRecorder(repo *SyncRunRepository) *HistoryRecorder {
	return &HistoryRecorder{repo: repo}
}

// Record persists report.
func (h *HistoryRecorder) Record(ctx context.Context, report *tasks.CycleReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	run := RunFromReport(report)
	if err := h.repo.Create(run); err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	return nil
}

// RunFromReport converts a cycle report into its persisted form.
func RunFromReport(report *tasks.CycleReport) *models.SyncRun {
	run := models.NewSyncRun(0, report.StartedAt)

	var errMsg string
	if report.Err != nil {
		errMsg = report.Err.Error()
	}
	finished := report.FinishedAt
	if finished.Before(report.StartedAt) {
		finished = report.StartedAt
	}
	run.Finish(finished, report.Status(), errMsg)

	for _, res := range report.Playlists {
		p := &models.PlaylistRun{
			PlaylistID: res.Playlist.ID,
			Title:      res.Playlist.Name,
			Status:     res.Status(),
			Remote:     res.Remote,
			Missing:    res.Missing,
			Downloaded: len(res.Downloaded),
			Failed:     len(res.Failed),
			Duration:   res.Duration,
		}
		if res.Err != nil {
			p.Error = res.Err.Error()
		} else if len(res.Failed) > 0 {
			p.Error = errors.Join(failureErrs(res)...).Error()
		}
		run.Playlists = append(run.Playlists, p)
	}
	return run
}

func failureErrs(res tasks.PlaylistResult) []error {
	errs := make([]error, 0, len(res.Failed))
	for _, out := range res.Failed {
		if out.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", out.Request.Track.ID, out.Err))
		}
	}
	return errs
}
