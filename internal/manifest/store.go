package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
)

// ParseError reports a manifest file that exists but cannot be decoded.
//
// It matches [shared.ErrManifestCorrupt] under [errors.Is].
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %v", shared.ErrManifestCorrupt, e.Path, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{shared.ErrManifestCorrupt, e.Err}
}

// Entry summarizes a manifest on disk.
type Entry struct {
	Title   string
	Path    string
	Tracks  int
	ModTime time.Time
	Err     error
}

// Store reads and writes manifests under a single root directory.
type Store struct {
	root string
	now  func() time.Time
}

// NewStore returns a [Store] rooted at dir. The directory is created on first write.
func NewStore(dir string) *Store {
	return &Store{root: dir, now: time.Now}
}

// Root returns the directory manifests are stored in.
func (s *Store) Root() string {
	return s.root
}

// Path returns the manifest path for a playlist title.
func (s *Store) Path(title string) string {
	return filepath.Join(s.root, FileName(title))
}

// Open returns the manifest for title, or [shared.ErrManifestNotFound] if it was never created.
func (s *Store) Open(title string) (*models.Manifest, error) {
	return s.Load(title)
}

// Load reads and decodes the manifest for title.
//
// A zero-length file decodes as an empty manifest. A file that fails to decode yields a [*ParseError].
func (s *Store) Load(title string) (*models.Manifest, error) {
	path := s.Path(title)
	m, err := s.read(path)
	if err != nil {
		return nil, err
	}
	if m.Title == "" {
		m.Title = title
	}
	return m, nil
}

// Read loads the manifest at an [Entry] path, falling back to the entry title when the file has none.
func (s *Store) Read(e Entry) (*models.Manifest, error) {
	m, err := s.read(e.Path)
	if err != nil {
		return nil, err
	}
	if m.Title == "" {
		m.Title = e.Title
	}
	return m, nil
}

func (s *Store) read(path string) (*models.Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", shared.ErrManifestNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	m := models.NewManifest("")
	if len(bytes.TrimSpace(data)) == 0 {
		return m, nil
	}

	if _, err := toml.Decode(string(data), m); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	m.Dedupe()
	return m, nil
}

// CreateEmpty writes an empty manifest for title unless one already exists, and returns the manifest on disk.
func (s *Store) CreateEmpty(title string) (*models.Manifest, error) {
	path := s.Path(title)
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return s.Load(title)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest %s: %w", path, err)
	}

	m := models.NewManifest(title)
	data, err := encode(m)
	if err == nil {
		_, err = f.Write(data)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return m, nil
}

// Save deduplicates m by track ID and atomically replaces its file.
func (s *Store) Save(m *models.Manifest) error {
	if m == nil || m.Title == "" {
		return fmt.Errorf("%w: manifest has no title", shared.ErrInvalidArgument)
	}
	m.Dedupe()

	data, err := encode(m)
	if err != nil {
		return err
	}
	if err := shared.WriteFileAtomic(s.Path(m.Title), data, 0o644); err != nil {
		return fmt.Errorf("failed to save manifest %q: %w", m.Title, err)
	}
	return nil
}

// Backup moves an unreadable manifest aside so a fresh one can be written, returning the new path.
func (s *Store) Backup(title string) (string, error) {
	path := s.Path(title)
	dest := fmt.Sprintf("%s.corrupt-%d", path, s.now().Unix())
	if err := os.Rename(path, dest); err != nil {
		return "", fmt.Errorf("failed to back up manifest %s: %w", path, err)
	}
	return dest, nil
}

// Lock takes the exclusive lock guarding the manifest for title, waiting until ctx is done.
func (s *Store) Lock(ctx context.Context, title string) (func() error, error) {
	lock, err := shared.NewFileLock(s.Path(title) + ".lock")
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(ctx); err != nil {
		return nil, err
	}
	return lock.Unlock, nil
}

// List summarizes every manifest in the store, sorted by title.
//
// Unreadable manifests are included with Err set. A missing root yields no entries.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest directory: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, Extension) || strings.HasPrefix(name, ".") {
			continue
		}

		path := filepath.Join(s.root, name)
		entry := Entry{Title: strings.TrimSuffix(name, Extension), Path: path}
		if info, err := de.Info(); err == nil {
			entry.ModTime = info.ModTime()
		}

		m, err := s.read(path)
		if err != nil {
			entry.Err = err
		} else {
			if m.Title != "" {
				entry.Title = m.Title
			}
			entry.Tracks = m.Len()
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Title) < strings.ToLower(entries[j].Title)
	})
	return entries, nil
}

func encode(m *models.Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("failed to encode manifest %q: %w", m.Title, err)
	}
	return buf.Bytes(), nil
}
