package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/spotsync/internal/formatter"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

type manifestRow struct {
	Title   string    `json:"title"`
	Path    string    `json:"path"`
	Tracks  int       `json:"tracks"`
	Updated time.Time `json:"updated"`
	Error   string    `json:"error,omitempty"`
}

// ManifestList prints every manifest in the data directory.
func (r *Runner) ManifestList(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	entries, err := r.store(config).List()
	if err != nil {
		return err
	}

	rows := make([]manifestRow, 0, len(entries))
	for _, e := range entries {
		row := manifestRow{Title: e.Title, Path: e.Path, Tracks: e.Tracks, Updated: e.ModTime}
		if e.Err != nil {
			row.Error = e.Err.Error()
		}
		rows = append(rows, row)
	}

	if cmd.Bool("json") {
		return r.writeJSON(rows, true)
	}

	if len(rows) == 0 {
		return r.writePlain("No manifests in %s\n", config.Sync.PlaylistsDir())
	}

	table := make([][]string, 0, len(rows))
	total := 0
	for _, row := range rows {
		tracks := humanize.Comma(int64(row.Tracks))
		if row.Error != "" {
			tracks = "unreadable"
		}
		total += row.Tracks
		table = append(table, []string{row.Title, tracks, shared.RelativeTime(row.Updated)})
	}

	r.writePlain("%s\n", renderTable(
		[]string{"Playlist", "Tracks", "Updated"},
		table,
		[]columnAlignment{alignLeft, alignRight, alignLeft},
	))
	return r.writePlain("%d manifests, %s tracks\n", len(rows), humanize.Comma(int64(total)))
}

// ManifestShow prints the tracks recorded for one playlist.
func (r *Runner) ManifestShow(ctx context.Context, cmd *cli.Command) error {
	m, err := r.loadManifest(cmd)
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	data, err := formatter.Export(m, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// ManifestExport writes one playlist's manifest to a file in the chosen format.
func (r *Runner) ManifestExport(ctx context.Context, cmd *cli.Command) error {
	m, err := r.loadManifest(cmd)
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(m, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("exported manifest", "playlist", m.Title, "format", format, "path", path)
	return r.writePlain("✓ Exported %d tracks to %s\n", m.Len(), path)
}

func (r *Runner) loadManifest(cmd *cli.Command) (*models.Manifest, error) {
	title := strings.TrimSpace(cmd.StringArg("playlist"))
	if title == "" {
		return nil, fmt.Errorf("%w: playlist title", shared.ErrMissingArgument)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return r.store(config).Load(title)
}
