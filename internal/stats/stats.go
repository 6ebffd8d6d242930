// Package stats maintains per-source request and error statistics, safe for
// one concurrent writer (the source's tailer) and any number of readers.
package stats

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Geun-Oh/ngmon/internal/source"
)

// MaxRecentEvents bounds the per-source recent-events feed.
const MaxRecentEvents = 5

// window accumulates counters over one reporting span. The interval window
// is zeroed on every refresh tick; the total window only on explicit reset.
type window struct {
	requests int
	status   map[int]int
	errors   int
	bytes    int64
	clients  map[string]struct{}
}

func newWindow() window {
	return window{
		status:  make(map[int]int),
		clients: make(map[string]struct{}),
	}
}

// SourceStats holds the mutable aggregate for a single log source. All fields
// are guarded by mu: every log-line application is one critical section, so a
// concurrent snapshot can never observe a request counted without its status
// bucket (or recent-events entry) applied.
type SourceStats struct {
	mu sync.Mutex

	src         source.LogSource
	filePresent bool
	interval    window
	total       window
	recent      *eventRing

	now func() time.Time // stubbed in tests
}

// New creates the statistics aggregate for one discovered source.
func New(src source.LogSource) *SourceStats {
	return &SourceStats{
		src:      src,
		interval: newWindow(),
		total:    newWindow(),
		recent:   newEventRing(MaxRecentEvents),
		now:      time.Now,
	}
}

// Source returns the immutable source this aggregate belongs to.
func (s *SourceStats) Source() source.LogSource {
	return s.src
}

// SetPresent records whether the underlying file currently exists.
func (s *SourceStats) SetPresent(present bool) {
	s.mu.Lock()
	s.filePresent = present
	s.mu.Unlock()
}

// ApplyAccess records one parsed access line in both windows. Status codes of
// 400 and above also count as errors and land in the recent-events feed.
func (s *SourceStats) ApplyAccess(status int, bytes int64, method, path, client string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interval.requests++
	s.total.requests++
	s.interval.status[status]++
	s.total.status[status]++
	s.interval.bytes += bytes
	s.total.bytes += bytes
	s.interval.clients[client] = struct{}{}
	s.total.clients[client] = struct{}{}

	if status >= 400 {
		s.interval.errors++
		s.total.errors++
		now := s.now()
		s.recent.push(Event{
			At:   now,
			Text: fmt.Sprintf("%s %d %s %s", now.Format("15:04:05"), status, method, truncate(path, 80)),
		})
	}
}

// ApplyError records one parsed error log line in both windows.
func (s *SourceStats) ApplyError(severity, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interval.requests++
	s.total.requests++
	s.interval.errors++
	s.total.errors++

	now := s.now()
	s.recent.push(Event{
		At:   now,
		Text: fmt.Sprintf("%s [%s] %s", now.Format("15:04:05"), severity, truncate(message, 100)),
	})
}

// ResetInterval zeroes the interval window. Totals and recent events are
// untouched; called on every refresh tick.
func (s *SourceStats) ResetInterval() {
	s.mu.Lock()
	s.interval = newWindow()
	s.mu.Unlock()
}

// ResetAll zeroes both windows and clears the recent-events feed.
func (s *SourceStats) ResetAll() {
	s.mu.Lock()
	s.interval = newWindow()
	s.total = newWindow()
	s.recent.clear()
	s.mu.Unlock()
}

// WindowSnapshot is an immutable copy of one window's counters.
type WindowSnapshot struct {
	Requests  int
	Status2xx int
	Status4xx int
	Status5xx int
	Errors    int
	Bytes     int64
	Clients   map[string]struct{}
}

// Snapshot is a consistent point-in-time copy of a SourceStats.
type Snapshot struct {
	Server      string
	Kind        source.Kind
	FilePresent bool
	Interval    WindowSnapshot
	Total       WindowSnapshot
	Recent      []Event
}

// Snapshot copies all counters and the recent-events feed under the same lock
// every writer holds, so the copy is never torn.
func (s *SourceStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Server:      s.src.Server,
		Kind:        s.src.Kind,
		FilePresent: s.filePresent,
		Interval:    s.interval.snapshot(),
		Total:       s.total.snapshot(),
		Recent:      s.recent.snapshot(),
	}
}

func (w *window) snapshot() WindowSnapshot {
	snap := WindowSnapshot{
		Requests: w.requests,
		Errors:   w.errors,
		Bytes:    w.bytes,
		Clients:  make(map[string]struct{}, len(w.clients)),
	}
	for code, n := range w.status {
		switch {
		case code >= 200 && code < 300:
			snap.Status2xx += n
		case code >= 400 && code < 500:
			snap.Status4xx += n
		case code >= 500:
			snap.Status5xx += n
		}
	}
	for c := range w.clients {
		snap.Clients[c] = struct{}{}
	}
	return snap
}

// truncate caps s at max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
