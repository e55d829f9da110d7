package manifest

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
)

func tracks(ids ...string) []models.Track {
	out := make([]models.Track, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Track{ID: id, Title: "Song " + id, Artists: []string{"Artist " + id}, Album: "Album"})
	}
	return out
}

func TestStore(t *testing.T) {
	t.Run("Open missing", func(t *testing.T) {
		store := NewStore(t.TempDir())
		_, err := store.Open("Road Trip")
		if !errors.Is(err, shared.ErrManifestNotFound) {
			t.Errorf("expected ErrManifestNotFound, got %v", err)
		}
	})

	t.Run("Save and Load round trip", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "playlists"))
		want := &models.Manifest{Title: `AC/DC "Live"`, Tracks: tracks("a", "b", "c")}
		want.Tracks[1].Artists = []string{"X", "Y"}

		if err := store.Save(want); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		got, err := store.Load(want.Title)
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
		}
	})

	t.Run("Save is byte stable", func(t *testing.T) {
		store := NewStore(t.TempDir())
		m := &models.Manifest{Title: "Road Trip", Tracks: tracks("a", "b")}
		if err := store.Save(m); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		first, _ := os.ReadFile(store.Path("Road Trip"))

		loaded, _ := store.Load("Road Trip")
		if err := store.Save(loaded); err != nil {
			t.Fatalf("failed to resave: %v", err)
		}
		second, _ := os.ReadFile(store.Path("Road Trip"))

		if !bytes.Equal(first, second) {
			t.Errorf("resaving changed the file:\n%s\n---\n%s", first, second)
		}
		if !strings.Contains(string(first), "[[tracks]]") || !strings.Contains(string(first), `id = "a"`) {
			t.Errorf("unexpected file layout:\n%s", first)
		}
	})

	t.Run("Save deduplicates", func(t *testing.T) {
		store := NewStore(t.TempDir())
		m := &models.Manifest{Title: "dupes", Tracks: append(tracks("a", "b"), tracks("a")...)}
		if err := store.Save(m); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		got, _ := store.Load("dupes")
		if got.Len() != 2 {
			t.Errorf("expected 2 tracks, got %d", got.Len())
		}
	})

	t.Run("Save requires title", func(t *testing.T) {
		store := NewStore(t.TempDir())
		if err := store.Save(&models.Manifest{}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("zero length file is empty", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStore(dir)
		os.WriteFile(store.Path("Road Trip"), nil, 0o644)

		m, err := store.Load("Road Trip")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Len() != 0 || m.Title != "Road Trip" {
			t.Errorf("expected empty manifest titled Road Trip, got %+v", m)
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		store := NewStore(t.TempDir())
		os.WriteFile(store.Path("Road Trip"), []byte("title = [unterminated"), 0o644)

		_, err := store.Load("Road Trip")
		if !errors.Is(err, shared.ErrManifestCorrupt) {
			t.Fatalf("expected ErrManifestCorrupt, got %v", err)
		}
		var perr *ParseError
		if !errors.As(err, &perr) || perr.Path != store.Path("Road Trip") {
			t.Errorf("expected ParseError with path, got %#v", err)
		}
	})

	t.Run("CreateEmpty never overwrites", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "new"))

		m, err := store.CreateEmpty("Road Trip")
		if err != nil {
			t.Fatalf("failed to create: %v", err)
		}
		if m.Len() != 0 {
			t.Errorf("expected empty manifest, got %d tracks", m.Len())
		}

		if err := store.Save(&models.Manifest{Title: "Road Trip", Tracks: tracks("a")}); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		m, err = store.CreateEmpty("Road Trip")
		if err != nil {
			t.Fatalf("second create failed: %v", err)
		}
		if m.Len() != 1 {
			t.Errorf("CreateEmpty overwrote existing manifest, got %d tracks", m.Len())
		}
	})

	t.Run("Backup", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStore(dir)
		store.now = func() time.Time { return time.Unix(1700000000, 0) }
		os.WriteFile(store.Path("x"), []byte("garbage ["), 0o644)

		dest, err := store.Backup("x")
		if err != nil {
			t.Fatalf("backup failed: %v", err)
		}
		if !strings.HasSuffix(dest, ".corrupt-1700000000") {
			t.Errorf("unexpected backup path %s", dest)
		}
		if _, err := store.Open("x"); !errors.Is(err, shared.ErrManifestNotFound) {
			t.Errorf("original should be gone, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		store := NewStore(t.TempDir())
		store.Save(&models.Manifest{Title: "b/side", Tracks: tracks("1", "2")})
		store.Save(&models.Manifest{Title: "Alpha", Tracks: tracks("1")})
		os.WriteFile(store.Path("broken"), []byte("= nope"), 0o644)

		unlock, err := store.Lock(context.Background(), "Alpha")
		if err != nil {
			t.Fatalf("lock failed: %v", err)
		}
		defer unlock()

		entries, err := store.List()
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d: %+v", len(entries), entries)
		}

		if entries[0].Title != "Alpha" || entries[0].Tracks != 1 {
			t.Errorf("unexpected first entry %+v", entries[0])
		}
		if entries[1].Title != "b/side" || entries[1].Tracks != 2 {
			t.Errorf("expected original title from file, got %+v", entries[1])
		}
		if !errors.Is(entries[2].Err, shared.ErrManifestCorrupt) {
			t.Errorf("expected broken manifest error, got %+v", entries[2])
		}
	})

	t.Run("List missing root", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "nope"))
		entries, err := store.List()
		if err != nil || len(entries) != 0 {
			t.Errorf("expected no entries and no error, got %v %v", entries, err)
		}
	})

	t.Run("Read entry", func(t *testing.T) {
		store := NewStore(t.TempDir())
		if err := store.Save(&models.Manifest{Title: "b/side", Tracks: tracks("1", "2")}); err != nil {
			t.Fatal(err)
		}
		untitled := filepath.Join(store.Root(), "Untitled.toml")
		if err := os.WriteFile(untitled, []byte("[[tracks]]\nid = \"9\"\ntitle = \"Nine\"\nartists = [\"Band\"]\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		entries, err := store.List()
		if err != nil || len(entries) != 2 {
			t.Fatalf("list = %+v, %v", entries, err)
		}
		for _, e := range entries {
			m, err := store.Read(e)
			if err != nil {
				t.Fatalf("Read(%q) failed: %v", e.Title, err)
			}
			if m.Title != e.Title || m.Len() != e.Tracks {
				t.Errorf("Read(%q) = %q with %d tracks", e.Title, m.Title, m.Len())
			}
		}
	})

	t.Run("Lock is exclusive", func(t *testing.T) {
		store := NewStore(t.TempDir())
		unlock, err := store.Lock(context.Background(), "Road Trip")
		if err != nil {
			t.Fatalf("lock failed: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		if _, err := store.Lock(ctx, "Road Trip"); err == nil {
			t.Error("expected second lock to time out")
		}

		if err := unlock(); err != nil {
			t.Fatalf("unlock failed: %v", err)
		}
		again, err := store.Lock(context.Background(), "Road Trip")
		if err != nil {
			t.Fatalf("relock failed: %v", err)
		}
		again()
	})
}
