package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/spotsync/internal/manifest"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
)

const maxWorkers = 10

// PoolOpts configures a [Pool].
type PoolOpts struct {
	SongDir string // Root under which each playlist gets its own directory
	Format  string // Output format handed to every request
	Workers int    // Concurrent downloads (default: 1, max: 10)
}

// Pool downloads a playlist's missing tracks over a bounded number of workers.
type Pool struct {
	dl   Downloader
	opts PoolOpts
}

// NewPool creates a [Pool] around dl.
func NewPool(dl Downloader, opts PoolOpts) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Workers > maxWorkers {
		opts.Workers = maxWorkers
	}
	return &Pool{dl: dl, opts: opts}
}

// Dir returns the directory audio for playlistTitle is written to.
func (p *Pool) Dir(playlistTitle string) string {
	return filepath.Join(p.opts.SongDir, manifest.DirName(playlistTitle))
}

type job struct {
	index int
	req   Request
}

// DownloadAll fetches every track and returns one [Outcome] per track in input order.
//
// The playlist directory is created first; failing to create it is the only error returned.
// onDone, when non-nil, is called as each download finishes. Calls are serialized.
func (p *Pool) DownloadAll(ctx context.Context, playlistTitle string, tracks []models.Track, onDone func(Outcome)) ([]Outcome, error) {
	if len(tracks) == 0 {
		return nil, nil
	}

	dir := p.Dir(playlistTitle)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create playlist directory %s: %w", dir, err)
	}

	outcomes := make([]Outcome, len(tracks))
	jobs := make(chan job, len(tracks))
	for i, t := range tracks {
		jobs <- job{index: i, req: Request{Dir: dir, Format: p.opts.Format, Track: t}}
	}
	close(jobs)

	workers := min(p.opts.Workers, len(tracks))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				var out Outcome
				if err := ctx.Err(); err != nil {
					out = Outcome{Request: j.req, ExitCode: -1, Err: fmt.Errorf("%w: %w", shared.ErrDownloadFailed, err)}
				} else {
					out = p.dl.Download(ctx, j.req)
				}
				outcomes[j.index] = out
				if onDone != nil {
					mu.Lock()
					onDone(out)
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	return outcomes, nil
}
