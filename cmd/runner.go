package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsync/internal/downloader"
	"github.com/desertthunder/spotsync/internal/manifest"
	"github.com/desertthunder/spotsync/internal/repositories"
	"github.com/desertthunder/spotsync/internal/services"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/desertthunder/spotsync/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies left nil are built from the loaded configuration the first time a command needs them.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    services.Service
	downloader downloader.Downloader
	clock      tasks.Clock
	logger     *log.Logger
	output     io.Writer
	closers    []io.Closer
	mu         sync.Mutex
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    services.Service
	Downloader downloader.Downloader
	Clock      tasks.Clock
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		downloader: opts.Downloader,
		clock:      opts.Clock,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, syncCommand, playlistsCommand, manifestCommand, historyCommand, browseCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and every dependency built after the call.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Before applies the global logging flags.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("log-file"); path != "" {
		logger, closer, err := shared.NewTeeLogger(os.Stderr, path)
		if err != nil {
			return ctx, err
		}
		r.closers = append(r.closers, closer)
		r.SetLogger(logger)
	}

	level, err := shared.ParseLogLevel(cmd.String("log-level"))
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// After releases anything opened while running a command.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// loadConfig reads the file named by --config and applies environment overrides.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	path := cmd.String("config")
	config, err := shared.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	r.config = config
	r.configPath = path
	r.logger.Debug("loaded config", "path", path)
	return config, nil
}

// saveTokens persists tok into the config file the runner was loaded from.
func (r *Runner) saveTokens(tok *oauth2.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config == nil {
		return fmt.Errorf("cannot save tokens: config is nil")
	}
	if r.configPath == "" {
		return fmt.Errorf("cannot save tokens: config path is empty")
	}

	r.config.Credentials.Spotify.Update(tok)
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}
	r.logger.Debug("saved refreshed token", "path", r.configPath, "expiry", tok.Expiry)
	return nil
}

// newSpotifyService builds an unauthenticated client from config.
func (r *Runner) newSpotifyService(config *shared.Config) (*services.SpotifyService, error) {
	svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map())
	if err != nil {
		return nil, err
	}
	svc.SetRateLimit(config.Sync.RequestsPerSecond)
	svc.SetRequestTimeout(config.Sync.RequestTimeout())
	svc.SetTokenRefreshCallback(func(tok *oauth2.Token) {
		if err := r.saveTokens(tok); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
		}
	})
	return svc, nil
}

// source returns the remote playlist service, authenticating with the stored token.
func (r *Runner) source(ctx context.Context, config *shared.Config) (services.Service, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}

	svc, err := r.newSpotifyService(config)
	if err != nil {
		return nil, err
	}

	tok := config.Credentials.Spotify.Token()
	if tok == nil {
		return nil, fmt.Errorf("%w: run 'spotsync auth' first", shared.ErrNotAuthenticated)
	}
	svc.AuthenticateToken(ctx, tok)

	r.spotify = svc
	return svc, nil
}

// store returns the manifest store under the configured data directory.
func (r *Runner) store(config *shared.Config) *manifest.Store {
	return manifest.NewStore(config.Sync.PlaylistsDir())
}

// newEngine wires the remote service, manifest store and download pool into a [tasks.PlaylistEngine].
func (r *Runner) newEngine(ctx context.Context, config *shared.Config) (*tasks.PlaylistEngine, error) {
	src, err := r.source(ctx, config)
	if err != nil {
		return nil, err
	}

	dl := r.downloader
	if dl == nil {
		dl = downloader.NewExec(
			config.Downloader.Command,
			config.Downloader.Timeout(),
			config.Downloader.ExtraArgs,
			shared.WithLogger(r.logger, "component", "downloader"),
		)
	}

	pool := downloader.NewPool(dl, downloader.PoolOpts{
		SongDir: config.Sync.SongDir,
		Format:  config.Sync.Format,
		Workers: config.Downloader.Workers,
	})

	return tasks.NewPlaylistEngine(src, r.store(config), pool, r.logger, tasks.EngineOpts{
		PlaylistLimit:         config.Sync.PlaylistLimit,
		RecordFailedDownloads: config.Sync.RecordFailedDownloads,
	}), nil
}

// openHistory opens the history database. The connection is closed when the command finishes.
func (r *Runner) openHistory(config *shared.Config) (*sql.DB, error) {
	db, err := shared.OpenHistory(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	r.closers = append(r.closers, db)
	return db, nil
}

// attachHistory records every cycle engine runs. A database that cannot be opened only disables history.
func (r *Runner) attachHistory(config *shared.Config, engine *tasks.PlaylistEngine) {
	db, err := r.openHistory(config)
	if err != nil {
		r.logger.Warn("sync history disabled", "error", err)
		return
	}
	engine.SetRecorder(repositories.NewHistoryRecorder(repositories.NewSyncRunRepository(db)))
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
