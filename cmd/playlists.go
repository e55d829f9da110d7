package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/urfave/cli/v3"
)

type playlistRow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tracks int    `json:"tracks"`
	Synced int    `json:"synced"`
	Local  bool   `json:"local"`
}

// Playlists lists the playlists a sync cycle would mirror, alongside how many tracks each manifest records.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	limit := config.Sync.PlaylistLimit
	if cmd.IsSet("limit") {
		limit = cmd.Int("limit")
	}

	src, err := r.source(ctx, config)
	if err != nil {
		return err
	}

	r.logger.Debug("listing playlists", "service", src.Name(), "limit", limit)
	refs, err := src.UserPlaylists(ctx, limit)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	store := r.store(config)
	rows := make([]playlistRow, 0, len(refs))
	for _, ref := range refs {
		row := playlistRow{ID: ref.ID, Name: ref.Name, Tracks: ref.TrackCount}
		m, err := store.Load(ref.Name)
		switch {
		case err == nil:
			row.Local = true
			row.Synced = m.Len()
		case !errors.Is(err, shared.ErrManifestNotFound):
			r.logger.Warn("unreadable manifest", "playlist", ref.Name, "error", err)
		}
		rows = append(rows, row)
	}

	if cmd.Bool("json") {
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	table := make([][]string, 0, len(rows))
	for i, row := range rows {
		synced := "-"
		if row.Local {
			synced = strconv.Itoa(row.Synced)
		}
		table = append(table, []string{strconv.Itoa(i + 1), row.Name, row.ID, strconv.Itoa(row.Tracks), synced})
	}

	r.writePlain("Found %d playlists on %s:\n", len(rows), src.Name())
	return r.writePlain("%s\n", renderTable(
		[]string{"#", "Playlist", "ID", "Tracks", "Synced"},
		table,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
	))
}
