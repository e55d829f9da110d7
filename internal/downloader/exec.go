package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsync/internal/shared"
)

const (
	defaultCommand = "songdl"
	defaultTimeout = 10 * time.Minute
	maxStderr      = 512
)

// Exec runs the downloader executable once per track.
//
// The process is invoked as
//
//	<command> --quiet --output-dir=<dir> --spotify-id=<id> --format=<fmt> --query=<title artists...> [extra args]
//
// and exit status 0 is the only success.
type Exec struct {
	Command   string        // Executable name or path; defaults to "songdl"
	ExtraArgs []string      // Appended after the standard arguments
	Timeout   time.Duration // Per invocation; defaults to ten minutes
	Logger    *log.Logger
}

// NewExec creates an [Exec] for command.
func NewExec(command string, timeout time.Duration, extra []string, logger *log.Logger) *Exec {
	return &Exec{Command: command, Timeout: timeout, ExtraArgs: extra, Logger: logger}
}

func (e *Exec) path() string {
	if e.Command == "" {
		return defaultCommand
	}
	return e.Command
}

// Args builds the command line for req.
func (e *Exec) Args(req Request) []string {
	args := []string{
		"--quiet",
		"--output-dir=" + req.Dir,
		"--spotify-id=" + req.Track.ID,
		"--format=" + req.Format,
		"--query=" + req.Track.Query(),
	}
	return append(args, e.ExtraArgs...)
}

// Download implements [Downloader].
func (e *Exec) Download(ctx context.Context, req Request) Outcome {
	start := time.Now()
	out := Outcome{Request: req}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, e.path(), e.Args(req)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	out.Duration = time.Since(start)

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		e.debug("downloaded", "track", req.Track.ID, "dir", req.Dir, "took", shared.FormatDuration(out.Duration))
		return out
	case errors.Is(cmdCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		out.ExitCode = -1
		out.Err = fmt.Errorf("%w: %w after %s", shared.ErrDownloadFailed, shared.ErrTimeout, timeout)
	case ctx.Err() != nil:
		out.ExitCode = -1
		out.Err = fmt.Errorf("%w: %w", shared.ErrDownloadFailed, ctx.Err())
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		out.Err = &ExitError{Code: out.ExitCode, Stderr: tail(stderr.String(), maxStderr)}
	default:
		out.ExitCode = -1
		out.Err = fmt.Errorf("%w: failed to start %s: %v", shared.ErrDownloadFailed, e.path(), err)
	}

	e.warn("download failed", "track", req.Track.ID, "title", req.Track.Title, "exit", out.ExitCode, "error", out.Err)
	return out
}

func (e *Exec) debug(msg string, kv ...any) {
	if e.Logger != nil {
		e.Logger.Debug(msg, kv...)
	}
}

func (e *Exec) warn(msg string, kv ...any) {
	if e.Logger != nil {
		e.Logger.Warn(msg, kv...)
	}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
