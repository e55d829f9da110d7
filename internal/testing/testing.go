// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spotsync/internal/downloader"
	"github.com/desertthunder/spotsync/internal/models"
)

// MockService is a test double for [services.Service].
//
// Playlists are listed in the order of Refs; Tracks maps a playlist ID to its track list.
// TrackErrs fails PlaylistTracks for a single playlist ID.
type MockService struct {
	Refs         []models.PlaylistRef
	Tracks       map[string][]models.Track
	PlaylistsErr error
	TrackErrs    map[string]error
	AuthErr      error

	mu          sync.Mutex
	TrackCalls  []string
	ListCalls   int
	Credentials map[string]string
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Credentials = credentials
	return m.AuthErr
}

func (m *MockService) UserPlaylists(ctx context.Context, limit int) ([]models.PlaylistRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.PlaylistsErr != nil {
		return nil, m.PlaylistsErr
	}
	refs := m.Refs
	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	return append([]models.PlaylistRef(nil), refs...), nil
}

func (m *MockService) PlaylistTracks(ctx context.Context, ref models.PlaylistRef) ([]models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrackCalls = append(m.TrackCalls, ref.ID)
	if err := m.TrackErrs[ref.ID]; err != nil {
		return nil, err
	}
	return append([]models.Track{}, m.Tracks[ref.ID]...), nil
}

func (m *MockService) Name() string { return "mock" }

// FakeDownloader records every request and fails the track IDs listed in Fail.
// It writes nothing to disk.
type FakeDownloader struct {
	Fail map[string]error
	// OnDownload, when set, runs before each request is answered.
	OnDownload func(req downloader.Request)

	mu       sync.Mutex
	requests []downloader.Request
}

func (f *FakeDownloader) Download(ctx context.Context, req downloader.Request) downloader.Outcome {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.OnDownload != nil {
		f.OnDownload(req)
	}
	if err := f.Fail[req.Track.ID]; err != nil {
		return downloader.Outcome{Request: req, ExitCode: 1, Err: err}
	}
	return downloader.Outcome{Request: req}
}

// Requests returns the requests seen so far.
func (f *FakeDownloader) Requests() []downloader.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]downloader.Request(nil), f.requests...)
}

// IDs returns the track IDs requested so far, in call order.
func (f *FakeDownloader) IDs() []string {
	reqs := f.Requests()
	ids := make([]string, len(reqs))
	for i, r := range reqs {
		ids[i] = r.Track.ID
	}
	return ids
}

// FakeClock is a manually advanced clock. Sleep advances time instantly and records the duration.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration

	// OnSleep, when set, runs after each Sleep with the new time.
	OnSleep func(now time.Time)
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	now, hook := c.now, c.OnSleep
	c.mu.Unlock()

	if hook != nil {
		hook(now)
	}
	return ctx.Err()
}

// Sleeps returns every duration passed to Sleep.
func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
