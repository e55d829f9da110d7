package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsync/internal/downloader"
	"github.com/desertthunder/spotsync/internal/manifest"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/services"
	"github.com/desertthunder/spotsync/internal/shared"
)

// PlaylistResult is the outcome of syncing a single playlist.
type PlaylistResult struct {
	Playlist     models.PlaylistRef
	Remote       int                  // Valid tracks in the remote playlist
	Missing      int                  // Remote tracks absent from the manifest before this run
	Downloaded   []models.Track       // Tracks fetched successfully
	Failed       []downloader.Outcome // Download attempts that failed
	Bootstrapped bool                 // Manifest was absent or unreadable and started empty
	Saved        bool                 // Manifest was written
	Err          error                // Playlist-level failure; downloads may still have been recorded
	Duration     time.Duration
}

// Status summarizes the result for history.
func (r PlaylistResult) Status() models.RunStatus {
	switch {
	case r.Err != nil:
		return models.RunFailed
	case len(r.Failed) > 0:
		return models.RunPartial
	default:
		return models.RunSucceeded
	}
}

// CycleReport aggregates one pass over every playlist.
type CycleReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Playlists  []PlaylistResult
	Err        error // Set when the cycle could not run to completion
}

// Totals sums downloads, failed downloads and playlists that ended in error.
func (r *CycleReport) Totals() (downloaded, failed, errored int) {
	for _, p := range r.Playlists {
		downloaded += len(p.Downloaded)
		failed += len(p.Failed)
		if p.Err != nil {
			errored++
		}
	}
	return downloaded, failed, errored
}

// HasErrors reports whether anything in the cycle failed.
func (r *CycleReport) HasErrors() bool {
	if r.Err != nil {
		return true
	}
	_, failed, errored := r.Totals()
	return failed > 0 || errored > 0
}

// Status summarizes the cycle for history.
func (r *CycleReport) Status() models.RunStatus {
	if r.Err != nil {
		return models.RunFailed
	}
	if r.HasErrors() {
		return models.RunPartial
	}
	return models.RunSucceeded
}

// Recorder persists cycle reports.
type Recorder interface {
	Record(ctx context.Context, report *CycleReport) error
}

// EngineOpts configures a [PlaylistEngine].
type EngineOpts struct {
	PlaylistLimit         int  // Playlists to mirror per cycle; zero or less mirrors all
	RecordFailedDownloads bool // Record tracks whose download failed so they are never retried
}

// PlaylistEngine runs sync cycles.
type PlaylistEngine struct {
	source   services.Service
	store    *manifest.Store
	pool     *downloader.Pool
	recorder Recorder
	logger   *log.Logger
	opts     EngineOpts
	now      func() time.Time
}

// NewPlaylistEngine creates a new PlaylistEngine with the provided dependencies.
func NewPlaylistEngine(source services.Service, store *manifest.Store, pool *downloader.Pool, logger *log.Logger, opts EngineOpts) *PlaylistEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PlaylistEngine{
		source: source,
		store:  store,
		pool:   pool,
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

// SetRecorder registers r to receive every cycle report.
func (e *PlaylistEngine) SetRecorder(r Recorder) {
	e.recorder = r
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// RunCycle syncs every playlist once.
//
// Each playlist is isolated: its failure is recorded in the report and the cycle moves on.
// The returned error is non-nil only when the cycle could not run at all (the playlist listing failed)
// or the credentials stopped working, in which case the remaining playlists are skipped.
func (e *PlaylistEngine) RunCycle(ctx context.Context, progress chan<- ProgressUpdate) (*CycleReport, error) {
	report := &CycleReport{StartedAt: e.now()}
	defer func() {
		report.FinishedAt = e.now()
		e.record(ctx, report)
		e.sendProgress(progress, cycleDoneUpdate(report))
	}()

	e.sendProgress(progress, fetchPlaylistsUpdate(e.opts.PlaylistLimit))
	refs, err := e.source.UserPlaylists(ctx, e.opts.PlaylistLimit)
	if err != nil {
		report.Err = fmt.Errorf("failed to list playlists: %w", err)
		return report, report.Err
	}
	e.logger.Info("starting sync cycle", "playlists", len(refs))

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			report.Err = err
			return report, err
		}

		e.sendProgress(progress, fetchTracksUpdate(i+1, len(refs), ref))
		res := e.SyncPlaylist(ctx, progress, ref)
		report.Playlists = append(report.Playlists, res)
		e.sendProgress(progress, playlistDoneUpdate(i+1, len(refs), res))

		if res.Err != nil && shared.IsAuthError(res.Err) {
			report.Err = res.Err
			return report, res.Err
		}
	}

	downloaded, failed, errored := report.Totals()
	e.logger.Info("sync cycle complete",
		"playlists", len(report.Playlists),
		"downloaded", downloaded,
		"failed", failed,
		"errors", errored,
		"took", shared.FormatDuration(e.now().Sub(report.StartedAt)),
	)
	return report, nil
}

func (e *PlaylistEngine) record(ctx context.Context, report *CycleReport) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(context.WithoutCancel(ctx), report); err != nil {
		e.logger.Warn("failed to record sync history", "error", err)
	}
}

// SyncPlaylist brings one playlist's local mirror up to date.
//
// The manifest is read, diffed against the remote track list and rewritten while holding its lock.
// Tracks are only recorded after a successful download unless RecordFailedDownloads is set.
func (e *PlaylistEngine) SyncPlaylist(ctx context.Context, progress chan<- ProgressUpdate, ref models.PlaylistRef) (res PlaylistResult) {
	start := e.now()
	res.Playlist = ref
	logger := shared.WithLogger(e.logger, "playlist", ref.Name)
	defer func() {
		res.Duration = e.now().Sub(start)
		if res.Err != nil {
			logger.Error("playlist sync failed", "error", res.Err)
		}
	}()

	unlock, err := e.store.Lock(ctx, ref.Name)
	if err != nil {
		res.Err = fmt.Errorf("failed to lock manifest: %w", err)
		return res
	}
	defer unlock()

	local, dirty, err := e.openManifest(logger, ref.Name)
	if err != nil {
		res.Err = err
		return res
	}
	res.Bootstrapped = dirty || local.Len() == 0

	remote, err := e.source.PlaylistTracks(ctx, ref)
	if err != nil {
		res.Err = err
		if dirty {
			res.Saved, res.Err = e.save(progress, local, err)
		}
		return res
	}
	res.Remote = len(remote)

	missing := Missing(local.Tracks, remote)
	res.Missing = len(missing)
	e.sendProgress(progress, compareUpdate(1, 1, ref.Name, len(remote), len(missing)))
	logger.Debug("compared manifest", "local", local.Len(), "remote", len(remote), "missing", len(missing))

	if len(missing) == 0 {
		if dirty {
			res.Saved, res.Err = e.save(progress, local, nil)
		}
		return res
	}

	logger.Info("downloading missing tracks", "count", len(missing))
	done := 0
	outcomes, err := e.pool.DownloadAll(ctx, ref.Name, missing, func(out downloader.Outcome) {
		done++
		e.sendProgress(progress, downloadUpdate(done, len(missing), out))
	})
	if err != nil {
		res.Err = err
		if dirty {
			res.Saved, res.Err = e.save(progress, local, err)
		}
		return res
	}

	// A failure seen after cancellation may be a track that never ran, so it is not recorded even when
	// RecordFailedDownloads is set.
	canceled := ctx.Err()
	var record []models.Track
	for _, out := range outcomes {
		if out.OK() {
			res.Downloaded = append(res.Downloaded, out.Request.Track)
			record = append(record, out.Request.Track)
			continue
		}
		res.Failed = append(res.Failed, out)
		if e.opts.RecordFailedDownloads && canceled == nil {
			record = append(record, out.Request.Track)
		}
	}

	updated := local.Append(record)
	if updated.Len() != local.Len() || dirty {
		res.Saved, res.Err = e.save(progress, updated, nil)
	}
	if res.Err == nil && canceled != nil {
		res.Err = canceled
	}
	return res
}

// openManifest loads the manifest for title, creating it when absent and starting over when it is unreadable.
// dirty reports that the returned manifest differs from what is on disk and must be saved.
func (e *PlaylistEngine) openManifest(logger *log.Logger, title string) (m *models.Manifest, dirty bool, err error) {
	m, err = e.store.Open(title)
	switch {
	case err == nil:
		return m, false, nil
	case errors.Is(err, shared.ErrManifestNotFound):
		logger.Info("creating manifest", "path", e.store.Path(title))
		m, err = e.store.CreateEmpty(title)
		if err != nil {
			return nil, false, err
		}
		return m, false, nil
	case errors.Is(err, shared.ErrManifestCorrupt):
		backup, berr := e.store.Backup(title)
		if berr != nil {
			return nil, false, fmt.Errorf("%w (backup failed: %v)", err, berr)
		}
		logger.Warn("manifest unreadable, rebuilding from scratch", "error", err, "backup", backup)
		return models.NewManifest(title), true, nil
	default:
		return nil, false, err
	}
}

// save writes m and returns the playlist error: cause when set, otherwise any write failure.
func (e *PlaylistEngine) save(progress chan<- ProgressUpdate, m *models.Manifest, cause error) (bool, error) {
	if err := e.store.Save(m); err != nil {
		if cause != nil {
			return false, errors.Join(cause, err)
		}
		return false, err
	}
	e.sendProgress(progress, saveManifestUpdate(m.Title, m.Len()))
	return true, cause
}
