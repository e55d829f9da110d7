package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values from the config file.
const (
	EnvSongDir       = "SPOTSYNC_SONG_DIR"
	EnvFormat        = "SPOTSYNC_FORMAT"
	EnvIntervalDays  = "SPOTSYNC_INTERVAL_DAYS"
	EnvClientID      = "SPOTIFY_CLIENT_ID"
	EnvClientSecret  = "SPOTIFY_CLIENT_SECRET"
	EnvRedirectURI   = "SPOTIFY_REDIRECT_URI"
	EnvDownloaderCmd = "SPOTSYNC_DOWNLOADER"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Sync        SyncConfig        `toml:"sync"`
	Downloader  DownloaderConfig  `toml:"downloader"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the most recent OAuth token.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	TokenType    string    `toml:"token_type"`
	Expiry       time.Time `toml:"expiry"`
}

// SyncConfig controls the scheduler and where manifests and audio live.
type SyncConfig struct {
	SongDir               string  `toml:"song_dir"`
	DataDir               string  `toml:"data_dir"`
	Format                string  `toml:"format"`
	IntervalDays          int     `toml:"interval_days"`
	CheckIntervalMinutes  int     `toml:"check_interval_minutes"`
	PlaylistLimit         int     `toml:"playlist_limit"`
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
	RequestsPerSecond     float64 `toml:"requests_per_second"`
	RecordFailedDownloads bool    `toml:"record_failed_downloads"`
	FailFast              bool    `toml:"fail_fast"`
}

// DownloaderConfig describes the external download executable.
type DownloaderConfig struct {
	Command        string   `toml:"command"`
	Workers        int      `toml:"workers"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	ExtraArgs      []string `toml:"extra_args"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings for the OAuth callback listener.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Optional settings left unset in the file receive their defaults. Required settings are checked by [Config.Validate].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	md, err := toml.Decode(string(data), &config)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.applyDefaults(md)
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	md, err := toml.Decode(string(exampleConf), &config)
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyDefaults(md)
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path, replacing the file atomically.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return WriteFileAtomic(path, buf.Bytes(), 0o600)
}

// applyDefaults fills settings left unset. md tells an explicit zero apart from a missing key where zero is meaningful.
func (c *Config) applyDefaults(md toml.MetaData) {
	if c.Sync.DataDir == "" {
		c.Sync.DataDir = "./data"
	}
	if c.Sync.CheckIntervalMinutes <= 0 {
		c.Sync.CheckIntervalMinutes = 15
	}
	if !md.IsDefined("sync", "playlist_limit") {
		c.Sync.PlaylistLimit = 10
	}
	if c.Sync.RequestTimeoutSeconds <= 0 {
		c.Sync.RequestTimeoutSeconds = 30
	}
	if c.Sync.RequestsPerSecond <= 0 {
		c.Sync.RequestsPerSecond = 5
	}
	if c.Downloader.Command == "" {
		c.Downloader.Command = "songdl"
	}
	if c.Downloader.Workers == 0 {
		c.Downloader.Workers = 1
	}
	if c.Downloader.TimeoutSeconds <= 0 {
		c.Downloader.TimeoutSeconds = 600
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(c.Sync.DataDir, "spotsync.db")
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8888
	}
	if c.Credentials.Spotify.RedirectURI == "" {
		c.Credentials.Spotify.RedirectURI = fmt.Sprintf("http://%s:%d/callback", c.Server.Host, c.Server.Port)
	}
}

// ApplyEnv overrides config values with environment variables found through lookup, usually [os.LookupEnv].
//
// A malformed value is a configuration error rather than being silently ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup(EnvSongDir); ok && v != "" {
		c.Sync.SongDir = v
	}
	if v, ok := lookup(EnvFormat); ok && v != "" {
		c.Sync.Format = v
	}
	if v, ok := lookup(EnvIntervalDays); ok {
		days, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvIntervalDays, v)
		}
		c.Sync.IntervalDays = days
	}
	if v, ok := lookup(EnvDownloaderCmd); ok && v != "" {
		c.Downloader.Command = v
	}
	if v, ok := lookup(EnvClientID); ok && v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v, ok := lookup(EnvClientSecret); ok && v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v, ok := lookup(EnvRedirectURI); ok && v != "" {
		c.Credentials.Spotify.RedirectURI = v
	}
	return nil
}

// Validate checks the settings the sync engine cannot run without.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Sync.SongDir) == "" {
		problems = append(problems, "sync.song_dir is required")
	}
	if strings.TrimSpace(c.Sync.Format) == "" {
		problems = append(problems, "sync.format is required")
	}
	if c.Sync.IntervalDays < 1 {
		problems = append(problems, "sync.interval_days must be at least 1")
	}
	if c.Downloader.Workers < 1 {
		problems = append(problems, "downloader.workers must be at least 1")
	}
	if strings.TrimSpace(c.Downloader.Command) == "" {
		problems = append(problems, "downloader.command is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Interval is the time between the start of one sync cycle and the next.
func (s SyncConfig) Interval() time.Duration {
	return time.Duration(s.IntervalDays) * 24 * time.Hour
}

// CheckInterval is how often a waiting scheduler re-reads the clock.
func (s SyncConfig) CheckInterval() time.Duration {
	return time.Duration(s.CheckIntervalMinutes) * time.Minute
}

// RequestTimeout bounds a single remote API call.
func (s SyncConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// PlaylistsDir is where manifests are stored.
func (s SyncConfig) PlaylistsDir() string {
	return filepath.Join(s.DataDir, "playlists")
}

// LockPath is the single-instance daemon lock file.
func (s SyncConfig) LockPath() string {
	return filepath.Join(s.DataDir, "spotsync.lock")
}

// Timeout bounds a single downloader invocation.
func (d DownloaderConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// Token returns the stored OAuth token, or nil if none has been saved.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		Expiry:       s.Expiry,
	}
}

// Update stores tok. An empty refresh token keeps the previous one since Spotify omits it on refresh.
func (s *SpotifyConfig) Update(tok *oauth2.Token) {
	if tok == nil {
		return
	}
	s.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		s.RefreshToken = tok.RefreshToken
	}
	s.TokenType = tok.TokenType
	s.Expiry = tok.Expiry
}

// Map returns the credentials in the form accepted by services.NewSpotifyService.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
		"access_token":  s.AccessToken,
		"refresh_token": s.RefreshToken,
	}
}
