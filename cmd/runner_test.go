package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spotsync/internal/manifest"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
	tu "github.com/desertthunder/spotsync/internal/testing"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Sync.SongDir = filepath.Join(dir, "music")
	config.Sync.DataDir = filepath.Join(dir, "data")
	config.Database.Path = filepath.Join(dir, "data", "spotsync.db")
	return config
}

func mockSpotify() *tu.MockService {
	return &tu.MockService{
		Refs: []models.PlaylistRef{
			{ID: "pl1", Name: "Road Trip", TrackCount: 2},
			{ID: "pl2", Name: "Focus", TrackCount: 1},
		},
		Tracks: map[string][]models.Track{
			"pl1": {
				{ID: "t1", Title: "Detour", Artists: []string{"Cee"}, Album: "Maps"},
				{ID: "t2", Title: "Highway", Artists: []string{"Dee"}, Album: "Maps"},
			},
			"pl2": {
				{ID: "t3", Title: "Quiet", Artists: []string{"Eff"}, Album: "Rooms"},
			},
		},
	}
}

// run executes args against a fresh command tree wired to r.
func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{
		Name:      "spotsync",
		Flags:     globalFlags(),
		Before:    r.Before,
		After:     r.After,
		Commands:  r.register(),
		Writer:    io.Discard,
		ErrWriter: io.Discard,
	}
	return app.Run(context.Background(), append([]string{"spotsync"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			spotify := &tu.MockService{}
			dl := &tu.FakeDownloader{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				Spotify:    spotify,
				Downloader: dl,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.spotify != spotify {
				t.Error("expected spotify to be set")
			}
			if runner.downloader != dl {
				t.Error("expected downloader to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if expected := `{"key":"value"}` + "\n"; output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writePlain("test"); err == nil {
				t.Fatal("expected error from failing writer")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "auth", "sync", "playlists", "manifest", "history", "browse"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("saveTokens", func(t *testing.T) {
		t.Run("saves tokens successfully", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			config := shared.DefaultConfig()
			config.Credentials.Spotify.ClientID = "test_id"
			config.Credentials.Spotify.ClientSecret = "test_secret"
			if err := shared.SaveConfig(configPath, config); err != nil {
				t.Fatalf("failed to create test config: %v", err)
			}

			runner := NewRunner(RunnerOpts{Config: config, ConfigPath: configPath})
			token := &oauth2.Token{AccessToken: "new_access_token", RefreshToken: "new_refresh_token"}
			if err := runner.saveTokens(token); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			loaded, err := shared.LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}
			if loaded.Credentials.Spotify.AccessToken != "new_access_token" {
				t.Errorf("expected access token to be updated, got %s", loaded.Credentials.Spotify.AccessToken)
			}
			if loaded.Credentials.Spotify.RefreshToken != "new_refresh_token" {
				t.Errorf("expected refresh token to be updated, got %s", loaded.Credentials.Spotify.RefreshToken)
			}
		})

		t.Run("keeps the refresh token when a refresh omits it", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			config := shared.DefaultConfig()
			config.Credentials.Spotify.RefreshToken = "original"
			runner := NewRunner(RunnerOpts{Config: config, ConfigPath: configPath})

			if err := runner.saveTokens(&oauth2.Token{AccessToken: "fresh"}); err != nil {
				t.Fatalf("saveTokens() = %v", err)
			}
			loaded, err := shared.LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}
			if loaded.Credentials.Spotify.RefreshToken != "original" {
				t.Errorf("refresh token = %q, want original", loaded.Credentials.Spotify.RefreshToken)
			}
		})

		t.Run("handles nil config error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/tmp/test.toml"})

			err := runner.saveTokens(&oauth2.Token{AccessToken: "test"})
			if err == nil || !strings.Contains(err.Error(), "config is nil") {
				t.Errorf("expected nil config error, got %v", err)
			}
		})

		t.Run("handles empty configPath", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig()})

			err := runner.saveTokens(&oauth2.Token{AccessToken: "test"})
			if err == nil || !strings.Contains(err.Error(), "config path is empty") {
				t.Errorf("expected empty path error, got %v", err)
			}
		})
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("missing file", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})
			err := run(t, runner, "manifest", "list", "--config", filepath.Join(t.TempDir(), "nope.toml"))
			if !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})

		t.Run("applies environment overrides", func(t *testing.T) {
			dir := t.TempDir()
			configPath := filepath.Join(dir, "config.toml")
			if err := shared.CreateConfigFile(configPath); err != nil {
				t.Fatal(err)
			}
			t.Setenv(shared.EnvIntervalDays, "3")
			t.Setenv(shared.EnvSongDir, filepath.Join(dir, "songs"))

			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})
			var config *shared.Config
			app := &cli.Command{
				Name:  "t",
				Flags: []cli.Flag{configFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) (err error) {
					config, err = runner.loadConfig(cmd)
					return err
				},
			}
			if err := app.Run(context.Background(), []string{"t", "--config", configPath}); err != nil {
				t.Fatalf("loadConfig() = %v", err)
			}
			if config.Sync.IntervalDays != 3 {
				t.Errorf("interval_days = %d, want 3", config.Sync.IntervalDays)
			}
			if config.Sync.SongDir != filepath.Join(dir, "songs") {
				t.Errorf("song_dir = %q", config.Sync.SongDir)
			}
			if runner.configPath != configPath {
				t.Errorf("configPath = %q", runner.configPath)
			}
		})

		t.Run("malformed environment override", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			if err := shared.CreateConfigFile(configPath); err != nil {
				t.Fatal(err)
			}
			t.Setenv(shared.EnvIntervalDays, "weekly")

			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})
			err := run(t, runner, "manifest", "list", "--config", configPath)
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("Before", func(t *testing.T) {
		t.Run("rejects unknown log level", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: testConfig(t), Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})
			err := run(t, runner, "--log-level", "loud", "manifest", "list")
			if !errors.Is(err, shared.ErrInvalidFlag) {
				t.Errorf("expected ErrInvalidFlag, got %v", err)
			}
		})

		t.Run("tees to the log file", func(t *testing.T) {
			logPath := filepath.Join(t.TempDir(), "logs", "spotsync.log")
			runner := NewRunner(RunnerOpts{Config: testConfig(t), Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})
			if err := run(t, runner, "--log-level", "debug", "--log-file", logPath, "manifest", "list"); err != nil {
				t.Fatalf("run() = %v", err)
			}
			tu.AssertFileExists(t, logPath)
		})
	})
}

func TestSyncCommands(t *testing.T) {
	newRunner := func(t *testing.T) (*Runner, *bytes.Buffer, *tu.FakeDownloader, *tu.MockService) {
		t.Helper()
		output := &bytes.Buffer{}
		dl := &tu.FakeDownloader{}
		spotify := mockSpotify()
		runner := NewRunner(RunnerOpts{
			Config:     testConfig(t),
			Spotify:    spotify,
			Downloader: dl,
			Logger:     shared.NewLogger(io.Discard),
			Output:     output,
		})
		return runner, output, dl, spotify
	}

	t.Run("sync once mirrors every playlist", func(t *testing.T) {
		runner, output, dl, _ := newRunner(t)

		if err := run(t, runner, "sync", "once"); err != nil {
			t.Fatalf("sync once = %v", err)
		}
		if got := len(dl.IDs()); got != 3 {
			t.Errorf("downloads = %d, want 3", got)
		}
		if !strings.Contains(output.String(), "Road Trip") || !strings.Contains(output.String(), "succeeded") {
			t.Errorf("report missing playlist or status:\n%s", output.String())
		}

		m, err := manifest.NewStore(runner.config.Sync.PlaylistsDir()).Load("Road Trip")
		if err != nil {
			t.Fatalf("Load() = %v", err)
		}
		if ids := m.IDs(); len(ids) != 2 || ids[0] != "t1" || ids[1] != "t2" {
			t.Errorf("manifest ids = %v", ids)
		}
	})

	t.Run("second run downloads nothing", func(t *testing.T) {
		runner, _, dl, _ := newRunner(t)

		if err := run(t, runner, "sync", "once"); err != nil {
			t.Fatal(err)
		}
		if err := run(t, runner, "sync", "once"); err != nil {
			t.Fatal(err)
		}
		if got := len(dl.IDs()); got != 3 {
			t.Errorf("downloads after two runs = %d, want 3", got)
		}
	})

	t.Run("sync once json report", func(t *testing.T) {
		runner, output, _, _ := newRunner(t)
		runner.downloader = &tu.FakeDownloader{Fail: map[string]error{"t2": shared.ErrDownloadFailed}}

		if err := run(t, runner, "sync", "once", "--json"); err != nil {
			t.Fatalf("sync once = %v", err)
		}

		var report reportJSONView
		if err := json.Unmarshal(output.Bytes(), &report); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, output.String())
		}
		if report.Status != string(models.RunPartial) {
			t.Errorf("status = %q, want partial", report.Status)
		}
		if len(report.Playlists) != 2 || len(report.Playlists[0].Failed) != 1 || report.Playlists[0].Failed[0] != "t2" {
			t.Errorf("unexpected playlists: %+v", report.Playlists)
		}
	})

	t.Run("failed playlist fails the command", func(t *testing.T) {
		runner, _, _, spotify := newRunner(t)
		spotify.TrackErrs = map[string]error{"pl2": shared.ErrPlaylistNotFound}

		err := run(t, runner, "sync", "once")
		if err == nil || !strings.Contains(err.Error(), "1 of 2 playlists failed") {
			t.Errorf("expected playlist failure, got %v", err)
		}
	})

	t.Run("invalid config is rejected before syncing", func(t *testing.T) {
		runner, _, dl, spotify := newRunner(t)
		runner.config.Sync.SongDir = ""

		if err := run(t, runner, "sync", "once"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
		if spotify.ListCalls != 0 || len(dl.IDs()) != 0 {
			t.Error("expected nothing to run")
		}
	})

	t.Run("held lock is reported", func(t *testing.T) {
		runner, _, _, _ := newRunner(t)
		lock, err := shared.NewFileLock(runner.config.Sync.LockPath())
		if err != nil {
			t.Fatal(err)
		}
		if err := lock.TryLock(); err != nil {
			t.Fatal(err)
		}
		defer lock.Unlock()

		for _, sub := range []string{"once", "run"} {
			if err := run(t, runner, "sync", sub); !errors.Is(err, shared.ErrLocked) {
				t.Errorf("sync %s: expected ErrLocked, got %v", sub, err)
			}
		}
	})

	t.Run("auth failure stops the daemon", func(t *testing.T) {
		runner, _, _, spotify := newRunner(t)
		spotify.PlaylistsErr = shared.ErrTokenExpired

		if err := run(t, runner, "sync", "run"); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("history lists recorded cycles", func(t *testing.T) {
		runner, output, _, _ := newRunner(t)
		if err := run(t, runner, "sync", "once"); err != nil {
			t.Fatal(err)
		}
		if err := run(t, runner, "sync", "once"); err != nil {
			t.Fatal(err)
		}
		output.Reset()

		if err := run(t, runner, "history", "--playlists"); err != nil {
			t.Fatalf("history = %v", err)
		}
		out := output.String()
		for _, want := range []string{"#1", "#2", "Run #2", "Focus"} {
			if !strings.Contains(out, want) {
				t.Errorf("history output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("history with nothing recorded", func(t *testing.T) {
		runner, output, _, _ := newRunner(t)
		if err := run(t, runner, "history"); err != nil {
			t.Fatalf("history = %v", err)
		}
		if !strings.Contains(output.String(), "No sync cycles recorded yet") {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

func TestPlaylistsCommand(t *testing.T) {
	output := &bytes.Buffer{}
	config := testConfig(t)
	store := manifest.NewStore(config.Sync.PlaylistsDir())
	m := models.NewManifest("Road Trip").Append([]models.Track{{ID: "t1", Title: "Detour", Artists: []string{"Cee"}}})
	if err := store.Save(m); err != nil {
		t.Fatal(err)
	}

	runner := NewRunner(RunnerOpts{Config: config, Spotify: mockSpotify(), Logger: shared.NewLogger(io.Discard), Output: output})

	t.Run("json", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, "playlists", "--json"); err != nil {
			t.Fatalf("playlists = %v", err)
		}
		var rows []playlistRow
		if err := json.Unmarshal(output.Bytes(), &rows); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("rows = %d, want 2", len(rows))
		}
		if !rows[0].Local || rows[0].Synced != 1 {
			t.Errorf("Road Trip = %+v, want 1 synced track", rows[0])
		}
		if rows[1].Local {
			t.Errorf("Focus should have no manifest: %+v", rows[1])
		}
	})

	t.Run("limit", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, "playlists", "--json", "--limit", "1"); err != nil {
			t.Fatalf("playlists = %v", err)
		}
		var rows []playlistRow
		if err := json.Unmarshal(output.Bytes(), &rows); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(rows) != 1 {
			t.Errorf("rows = %d, want 1", len(rows))
		}
	})

	t.Run("table", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, "playlists"); err != nil {
			t.Fatalf("playlists = %v", err)
		}
		if !strings.Contains(output.String(), "Found 2 playlists") || !strings.Contains(output.String(), "Focus") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})
}

func TestManifestCommands(t *testing.T) {
	config := testConfig(t)
	store := manifest.NewStore(config.Sync.PlaylistsDir())
	m := models.NewManifest("Road Trip").Append([]models.Track{
		{ID: "t1", Title: "Detour", Artists: []string{"Cee"}, Album: "Maps"},
		{ID: "t2", Title: "Highway", Artists: []string{"Dee"}, Album: "Maps"},
	})
	if err := store.Save(m); err != nil {
		t.Fatal(err)
	}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard), Output: output})

	t.Run("list", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, "manifest", "list"); err != nil {
			t.Fatalf("manifest list = %v", err)
		}
		if !strings.Contains(output.String(), "Road Trip") || !strings.Contains(output.String(), "1 manifests, 2 tracks") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})

	t.Run("list json", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, "m", "list", "--json"); err != nil {
			t.Fatalf("manifest list = %v", err)
		}
		var rows []manifestRow
		if err := json.Unmarshal(output.Bytes(), &rows); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(rows) != 1 || rows[0].Tracks != 2 {
			t.Errorf("rows = %+v", rows)
		}
	})

	t.Run("show", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, "manifest", "show", "Road Trip"); err != nil {
			t.Fatalf("manifest show = %v", err)
		}
		if !strings.Contains(output.String(), "Tracks: 2") || !strings.Contains(output.String(), "Highway") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})

	t.Run("show missing playlist", func(t *testing.T) {
		if err := run(t, runner, "manifest", "show", "Nope"); !errors.Is(err, shared.ErrManifestNotFound) {
			t.Errorf("expected ErrManifestNotFound, got %v", err)
		}
	})

	t.Run("show without argument", func(t *testing.T) {
		if err := run(t, runner, "manifest", "show"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("export", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "road.csv")
		if err := run(t, runner, "manifest", "export", "--format", "csv", "--output", path, "Road Trip"); err != nil {
			t.Fatalf("manifest export = %v", err)
		}
		content := tu.MustReadFile(t, path)
		if !strings.Contains(content, "t2") || !strings.Contains(content, "Highway") {
			t.Errorf("unexpected export:\n%s", content)
		}
	})

	t.Run("export unknown format", func(t *testing.T) {
		if err := run(t, runner, "manifest", "export", "--format", "xml", "Road Trip"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestAuthStatus(t *testing.T) {
	t.Run("without a token", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: testConfig(t), Logger: shared.NewLogger(io.Discard), Output: output})

		if err := run(t, runner, "auth", "status"); err != nil {
			t.Fatalf("auth status = %v", err)
		}
		if !strings.Contains(output.String(), "Not authenticated") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("auth requires client credentials", func(t *testing.T) {
		config := testConfig(t)
		config.Credentials.Spotify.ClientID = ""
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})

		if err := run(t, runner, "auth"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: output})
	if err := run(t, runner, "setup", "--config", "config.toml"); err != nil {
		t.Fatalf("setup = %v", err)
	}

	tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
	tu.AssertFileExists(t, filepath.Join(dir, "data", "spotsync.db"))
	tu.AssertDirExists(t, filepath.Join(dir, "data", "playlists"))
	if !strings.Contains(output.String(), "Config file created") {
		t.Errorf("unexpected output:\n%s", output.String())
	}

	t.Run("is idempotent", func(t *testing.T) {
		output.Reset()
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: output})
		if err := run(t, runner, "setup"); err != nil {
			t.Fatalf("second setup = %v", err)
		}
		if strings.Contains(output.String(), "Config file created") {
			t.Error("expected the existing config to be kept")
		}
	})
}
