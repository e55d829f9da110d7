package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/repositories"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// History prints the most recent sync cycles recorded in the history database.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openHistory(config)
	if err != nil {
		return err
	}

	limit := cmd.Int("limit")
	if limit <= 0 {
		return fmt.Errorf("%w: --limit must be positive", shared.ErrInvalidFlag)
	}

	runs, err := repositories.NewSyncRunRepository(db).Recent(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return r.writePlain("No sync cycles recorded yet\n")
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		downloaded, failed := run.Totals()
		rows = append(rows, []string{
			"#" + strconv.Itoa(run.Sequence()),
			humanize.Time(run.StartedAt()),
			shared.FormatDuration(run.Duration()),
			string(run.Status()),
			strconv.Itoa(len(run.Playlists)),
			humanize.Comma(int64(downloaded)),
			humanize.Comma(int64(failed)),
			run.Error(),
		})
	}

	r.writePlain("%s\n", renderTable(
		[]string{"Run", "Started", "Took", "Status", "Playlists", "Downloaded", "Failed", "Error"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))

	if !cmd.Bool("playlists") {
		return nil
	}
	for _, run := range runs {
		r.writePlainln("Run #%d", run.Sequence())
		r.writePlain("%s\n", playlistRunTable(run.Playlists))
	}
	return nil
}

func playlistRunTable(playlists []*models.PlaylistRun) string {
	rows := make([][]string, 0, len(playlists))
	for _, p := range playlists {
		rows = append(rows, []string{
			p.Title,
			string(p.Status),
			strconv.Itoa(p.Remote),
			strconv.Itoa(p.Missing),
			strconv.Itoa(p.Downloaded),
			strconv.Itoa(p.Failed),
			shared.FormatDuration(p.Duration),
			p.Error,
		})
	}
	return renderTable(
		[]string{"Playlist", "Status", "Remote", "Missing", "Downloaded", "Failed", "Took", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}
