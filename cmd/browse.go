package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/desertthunder/spotsync/internal/tasks"
	"github.com/desertthunder/spotsync/internal/ui"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// Browse launches the interactive terminal UI over the local manifests.
//
// Syncing from the UI is available when Spotify credentials are stored and no scheduler holds the data directory.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return fmt.Errorf("%w: browse needs an interactive terminal", shared.ErrInvalidArgument)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := filepath.Join(config.Sync.DataDir, "spotsync-tui.log")
	fileLogger, closer, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.closers = append(r.closers, closer)
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	var cycler tasks.Cycler
	if engine, err := r.browseEngine(ctx, config); err != nil {
		r.logger.Warn("sync disabled in browser", "error", err)
	} else {
		cycler = engine
	}

	p := tea.NewProgram(ui.NewModel(ctx, r.store(config), cycler), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func (r *Runner) browseEngine(ctx context.Context, config *shared.Config) (*tasks.PlaylistEngine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	unlock, err := r.lockDataDir(config)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, closerFunc(unlock))

	engine, err := r.newEngine(ctx, config)
	if err != nil {
		return nil, err
	}
	r.attachHistory(config, engine)
	return engine, nil
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}
