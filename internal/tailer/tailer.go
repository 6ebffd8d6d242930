// Package tailer follows log files as they grow and feeds classified lines
// into per-source statistics. One tailer goroutine runs per source under a
// Supervisor; every failure is recovered locally with backoff, so a broken or
// missing file degrades to an absent source instead of taking the process down.
package tailer

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Geun-Oh/ngmon/internal/classify"
	"github.com/Geun-Oh/ngmon/internal/source"
	"github.com/Geun-Oh/ngmon/internal/stats"
)

const (
	defaultPollInterval = 100 * time.Millisecond
	defaultBackoff      = time.Second
)

// Tailer follows a single log source. Only new content is processed: the
// first open seeks to end-of-file, and a rotated replacement file is read
// from its start.
type Tailer struct {
	src   source.LogSource
	stats *stats.SourceStats

	pollInterval time.Duration
	backoff      time.Duration
}

// New creates a tailer feeding the given statistics aggregate.
func New(src source.LogSource, st *stats.SourceStats) *Tailer {
	return &Tailer{
		src:          src,
		stats:        st,
		pollInterval: defaultPollInterval,
		backoff:      defaultBackoff,
	}
}

type followResult int

const (
	followStopped followResult = iota
	followRotated
	followFailed
)

// Run follows the source until ctx is cancelled. Cancellation is observed
// within one poll interval; there is no blocking read that could outlast it.
func (t *Tailer) Run(ctx context.Context) {
	seekEnd := true

	for ctx.Err() == nil {
		f, err := os.Open(t.src.Path)
		if err != nil {
			t.stats.SetPresent(false)
			seekEnd = true
			if !sleep(ctx, t.backoff) {
				return
			}
			continue
		}

		t.stats.SetPresent(true)
		if seekEnd {
			if _, err := f.Seek(0, io.SeekEnd); err != nil {
				f.Close()
				t.stats.SetPresent(false)
				if !sleep(ctx, t.backoff) {
					return
				}
				continue
			}
		}

		result := t.follow(ctx, f)
		f.Close()

		switch result {
		case followStopped:
			return
		case followRotated:
			// The file at path is a fresh one; reopen immediately and
			// read it from the beginning.
			seekEnd = false
		case followFailed:
			seekEnd = true
			if !sleep(ctx, t.backoff) {
				return
			}
		}
	}
}

// follow reads lines from f until rotation, an I/O failure, or cancellation.
func (t *Tailer) follow(ctx context.Context, f *os.File) followResult {
	r := bufio.NewReader(f)
	partial := ""

	for {
		// Checked every line, not just at EOF: a steady stream of complete
		// lines must not delay the stop signal past one poll interval.
		if ctx.Err() != nil {
			return followStopped
		}

		chunk, err := r.ReadString('\n')
		if err == nil {
			line := partial + chunk
			partial = ""
			t.apply(strings.TrimRight(line, " \t\r\n"))
			continue
		}
		if !errors.Is(err, io.EOF) {
			t.stats.SetPresent(false)
			return followFailed
		}

		// At EOF a trailing fragment has no newline yet; hold it until the
		// writer finishes the line.
		partial += chunk

		if !sleep(ctx, t.pollInterval) {
			return followStopped
		}

		diskInfo, err := os.Stat(t.src.Path)
		if err != nil {
			t.stats.SetPresent(false)
			return followFailed
		}
		handleInfo, err := f.Stat()
		if err != nil {
			t.stats.SetPresent(false)
			return followFailed
		}
		if !os.SameFile(diskInfo, handleInfo) {
			return followRotated
		}
	}
}

// apply classifies one line per the source kind and records the result.
// Lines matching neither recognized shape are dropped without trace.
func (t *Tailer) apply(line string) {
	if t.src.Kind == source.Error {
		if ev, ok := classify.Error(line); ok {
			t.stats.ApplyError(ev.Severity, ev.Message)
		}
		return
	}
	if ev, ok := classify.Access(line); ok {
		t.stats.ApplyAccess(ev.Status, ev.Bytes, ev.Method, ev.Path, ev.Client)
	}
}

// sleep blocks for d or until ctx is cancelled. Returns false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
