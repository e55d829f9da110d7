package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
)

// SyncRunRepository stores [models.SyncRun] rows for cycle history.
//
// A run's playlist outcomes are stored alongside it in playlist_runs and replaced wholesale on update.
type SyncRunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.SyncRun] = (*SyncRunRepository)(nil)

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create inserts a new run and its playlist outcomes with generated ID and sequence
func (r *SyncRunRepository) Create(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(tx, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.SetID(shared.GenerateID())
	run.SetSequence(sequence)

	query := `
		INSERT INTO sync_runs (id, sequence, status, started_at, finished_at, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(query,
		run.ID(),
		run.Sequence(),
		string(run.Status()),
		run.StartedAt(),
		nullTime(run.FinishedAt()),
		run.Error(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	if err := insertPlaylistRuns(tx, run); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sync run: %w", err)
	}
	return nil
}

// Get retrieves a run and its playlist outcomes by ID
func (r *SyncRunRepository) Get(id string) (*models.SyncRun, error) {
	query := `
		SELECT id, sequence, status, started_at, finished_at, error, created_at, updated_at
		FROM sync_runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sync run not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadPlaylists(run); err != nil {
		return nil, err
	}
	return run, nil
}

// Update rewrites a run's status, timestamps, and playlist outcomes
func (r *SyncRunRepository) Update(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE sync_runs
		SET status = ?, finished_at = ?, error = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := tx.Exec(query, string(run.Status()), nullTime(run.FinishedAt()), run.Error(), now, run.ID())
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run not found: %s", run.ID())
	}

	if _, err := tx.Exec("DELETE FROM playlist_runs WHERE run_id = ?", run.ID()); err != nil {
		return fmt.Errorf("failed to clear playlist runs: %w", err)
	}
	if err := insertPlaylistRuns(tx, run); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sync run: %w", err)
	}
	return nil
}

// Delete removes a run; its playlist outcomes cascade
func (r *SyncRunRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM sync_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run not found: %s", id)
	}
	return nil
}

// List retrieves runs matching the given criteria, newest first.
//
// Supported criteria: "status" (models.RunStatus or string), "since" (time.Time), "limit" (int).
// Playlist outcomes are not loaded; use [SyncRunRepository.Get] for a single run's detail.
func (r *SyncRunRepository) List(criteria map[string]any) ([]*models.SyncRun, error) {
	query := `
		SELECT id, sequence, status, started_at, finished_at, error, created_at, updated_at
		FROM sync_runs
		WHERE 1 = 1
	`

	args := []any{}

	switch status := criteria["status"].(type) {
	case models.RunStatus:
		query += " AND status = ?"
		args = append(args, string(status))
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	}

	if since, ok := criteria["since"].(time.Time); ok && !since.IsZero() {
		query += " AND started_at >= ?"
		args = append(args, since)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// Recent returns the newest limit runs with their playlist outcomes.
func (r *SyncRunRepository) Recent(limit int) ([]*models.SyncRun, error) {
	runs, err := r.List(map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}
	for _, run := range runs {
		if err := r.loadPlaylists(run); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (r *SyncRunRepository) loadPlaylists(run *models.SyncRun) error {
	query := `
		SELECT playlist_id, title, status, remote, missing, downloaded, failed, error, duration_ms
		FROM playlist_runs
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, run.ID())
	if err != nil {
		return fmt.Errorf("failed to query playlist runs: %w", err)
	}
	defer rows.Close()

	run.Playlists = nil
	for rows.Next() {
		var (
			p          = &models.PlaylistRun{RunID: run.ID()}
			status     string
			durationMS int64
		)
		err := rows.Scan(&p.PlaylistID, &p.Title, &status, &p.Remote, &p.Missing, &p.Downloaded, &p.Failed, &p.Error, &durationMS)
		if err != nil {
			return fmt.Errorf("failed to scan playlist run: %w", err)
		}
		p.Status = models.RunStatus(status)
		p.Duration = time.Duration(durationMS) * time.Millisecond
		run.Playlists = append(run.Playlists, p)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

func insertPlaylistRuns(tx *sql.Tx, run *models.SyncRun) error {
	query := `
		INSERT INTO playlist_runs (run_id, position, playlist_id, title, status, remote, missing, downloaded, failed, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i, p := range run.Playlists {
		p.RunID = run.ID()
		_, err := tx.Exec(query,
			run.ID(),
			i,
			p.PlaylistID,
			p.Title,
			string(p.Status),
			p.Remote,
			p.Missing,
			p.Downloaded,
			p.Failed,
			p.Error,
			p.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert playlist run %q: %w", p.Title, err)
		}
	}
	return nil
}

// rowScanner is satisfied by both [sql.Row] and [sql.Rows]
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single row into a [models.SyncRun]. A missing row is returned as [sql.ErrNoRows].
func scanRun(row rowScanner) (*models.SyncRun, error) {
	var (
		id         string
		sequence   int
		status     string
		startedAt  time.Time
		finishedAt sql.NullTime
		errMsg     string
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := row.Scan(&id, &sequence, &status, &startedAt, &finishedAt, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}

	run := models.NewSyncRun(sequence, startedAt)
	run.SetID(id)
	run.SetStatus(models.RunStatus(status))
	run.SetError(errMsg)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if finishedAt.Valid {
		run.SetFinishedAt(&finishedAt.Time)
	}
	return run, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
