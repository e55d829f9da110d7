// Package downloader invokes the external audio downloader for missing tracks.
//
// The [Downloader] interface is the seam the sync engine depends on. [Exec] runs a real
// subprocess per track and [Pool] fans a playlist's missing tracks out over a bounded number of workers.
package downloader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
)

// Request describes one track to fetch.
type Request struct {
	Dir    string       // Directory the audio file is written to
	Format string       // Output format passed through to the downloader, e.g. "mp3"
	Track  models.Track // Track to fetch; its ID is the primary lookup and Query the fallback
}

// Outcome is the result of a single download attempt.
type Outcome struct {
	Request  Request
	ExitCode int
	Err      error
	Duration time.Duration
}

// OK reports whether the download succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Downloader fetches a single track. Failures are reported through [Outcome.Err] rather than
// aborting the caller, so one bad track never stops the rest of a playlist.
type Downloader interface {
	Download(ctx context.Context, req Request) Outcome
}

// Func adapts a plain function to [Downloader].
type Func func(ctx context.Context, req Request) Outcome

func (f Func) Download(ctx context.Context, req Request) Outcome {
	return f(ctx, req)
}

// ExitError reports a downloader process that ran but exited non-zero.
//
// It matches [shared.ErrDownloadFailed] under [errors.Is].
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", shared.ErrDownloadFailed, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return shared.ErrDownloadFailed
}
