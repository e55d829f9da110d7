package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/desertthunder/spotsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SyncRun runs the scheduler until interrupted.
//
// Only one scheduler may run against a data directory; a second one fails with [shared.ErrLocked].
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadValidConfig(cmd)
	if err != nil {
		return err
	}

	unlock, err := r.lockDataDir(config)
	if err != nil {
		return err
	}
	defer unlock()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := r.newEngine(ctx, config)
	if err != nil {
		return err
	}
	r.attachHistory(config, engine)

	scheduler := tasks.NewScheduler(engine, r.clock, r.logger, tasks.SchedulerOpts{
		Interval:   config.Sync.Interval(),
		CheckEvery: config.Sync.CheckInterval(),
		FailFast:   config.Sync.FailFast,
	})

	r.logger.Info("starting scheduler",
		"interval", config.Sync.Interval(),
		"song_dir", config.Sync.SongDir,
		"format", config.Sync.Format,
	)
	if err := scheduler.Run(ctx); err != nil {
		return fmt.Errorf("scheduler stopped: %w", err)
	}
	r.logger.Info("scheduler stopped")
	return nil
}

// SyncOnce runs a single cycle and prints its report.
//
// Failed downloads are reported but do not fail the command; a playlist that could not be synced does.
func (r *Runner) SyncOnce(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadValidConfig(cmd)
	if err != nil {
		return err
	}

	unlock, err := r.lockDataDir(config)
	if err != nil {
		return err
	}
	defer unlock()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := r.newEngine(ctx, config)
	if err != nil {
		return err
	}
	r.attachHistory(config, engine)

	report, err := engine.RunCycle(ctx, nil)
	if err != nil {
		return fmt.Errorf("sync cycle failed: %w", err)
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(reportJSON(report), true); err != nil {
			return err
		}
	} else {
		r.writeReport(report)
	}

	if _, _, errored := report.Totals(); errored > 0 {
		return fmt.Errorf("%d of %d playlists failed to sync", errored, len(report.Playlists))
	}
	return nil
}

func (r *Runner) loadValidConfig(cmd *cli.Command) (*shared.Config, error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// lockDataDir takes the single-instance lock without waiting.
func (r *Runner) lockDataDir(config *shared.Config) (func(), error) {
	lock, err := shared.NewFileLock(config.Sync.LockPath())
	if err != nil {
		return nil, err
	}
	if err := lock.TryLock(); err != nil {
		return nil, fmt.Errorf("another sync is running: %w", err)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release lock", "path", lock.Path(), "error", err)
		}
	}, nil
}

func (r *Runner) writeReport(report *tasks.CycleReport) {
	rows := make([][]string, 0, len(report.Playlists))
	for _, p := range report.Playlists {
		note := ""
		switch {
		case p.Err != nil:
			note = p.Err.Error()
		case p.Bootstrapped:
			note = "new manifest"
		}
		rows = append(rows, []string{
			p.Playlist.Name,
			string(p.Status()),
			strconv.Itoa(p.Remote),
			strconv.Itoa(p.Missing),
			strconv.Itoa(len(p.Downloaded)),
			strconv.Itoa(len(p.Failed)),
			shared.FormatDuration(p.Duration),
			note,
		})
	}

	r.writePlain("%s\n", renderTable(
		[]string{"Playlist", "Status", "Remote", "Missing", "Downloaded", "Failed", "Took", "Note"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))

	downloaded, failed, errored := report.Totals()
	r.writePlain("\n%s: %d downloaded, %d failed downloads, %d failed playlists in %s\n",
		report.Status(), downloaded, failed, errored, shared.FormatDuration(report.FinishedAt.Sub(report.StartedAt)))
}

type playlistJSON struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Status       string   `json:"status"`
	Remote       int      `json:"remote"`
	Missing      int      `json:"missing"`
	Downloaded   []string `json:"downloaded"`
	Failed       []string `json:"failed"`
	Bootstrapped bool     `json:"bootstrapped"`
	Saved        bool     `json:"saved"`
	Error        string   `json:"error,omitempty"`
	DurationMS   int64    `json:"duration_ms"`
}

type reportJSONView struct {
	Status     string         `json:"status"`
	StartedAt  string         `json:"started_at"`
	FinishedAt string         `json:"finished_at"`
	Playlists  []playlistJSON `json:"playlists"`
}

func reportJSON(report *tasks.CycleReport) reportJSONView {
	view := reportJSONView{
		Status:     string(report.Status()),
		StartedAt:  report.StartedAt.Format(time.RFC3339),
		FinishedAt: report.FinishedAt.Format(time.RFC3339),
		Playlists:  make([]playlistJSON, 0, len(report.Playlists)),
	}
	for _, p := range report.Playlists {
		pj := playlistJSON{
			ID:           p.Playlist.ID,
			Name:         p.Playlist.Name,
			Status:       string(p.Status()),
			Remote:       p.Remote,
			Missing:      p.Missing,
			Downloaded:   make([]string, 0, len(p.Downloaded)),
			Failed:       make([]string, 0, len(p.Failed)),
			Bootstrapped: p.Bootstrapped,
			Saved:        p.Saved,
			DurationMS:   p.Duration.Milliseconds(),
		}
		for _, t := range p.Downloaded {
			pj.Downloaded = append(pj.Downloaded, t.ID)
		}
		for _, o := range p.Failed {
			pj.Failed = append(pj.Failed, o.Request.Track.ID)
		}
		if p.Err != nil {
			pj.Error = p.Err.Error()
		}
		view.Playlists = append(view.Playlists, pj)
	}
	return view
}
