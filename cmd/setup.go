package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a starter config file if none exists, creates the data directories and runs database migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	created := false
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		created = true
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	for _, dir := range []string{config.Sync.DataDir, config.Sync.PlaylistsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)
	db, err := r.openHistory(config)
	if err != nil {
		return err
	}

	version, _, err := shared.SchemaVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	r.logger.Infof("setup complete for database: %v (schema version %d)", config.Database.Path, version)

	if created {
		r.writePlain("✓ Config file created at %s\n", configPath)
	}
	r.writePlain("✓ History database ready at %s\n", config.Database.Path)

	if err := config.Validate(); err != nil {
		r.writePlainln("Next steps:")
		r.writePlain("1. Edit %s: %v\n", configPath, err)
		r.writePlain("2. Run 'spotsync auth' to sign in to Spotify\n")
		return nil
	}
	if config.Credentials.Spotify.Token() == nil {
		r.writePlainln("Next step: run 'spotsync auth' to sign in to Spotify")
	}
	return nil
}
