// Package aggregate computes cross-source totals and rates from per-source
// statistics snapshots. Stateless: all inputs arrive as value snapshots, so a
// report composes slightly time-skewed sources without holding any lock.
package aggregate

import (
	"sort"
	"time"

	"github.com/Geun-Oh/ngmon/internal/source"
	"github.com/Geun-Oh/ngmon/internal/stats"
)

// MaxRecentEvents bounds the merged cross-source recent-events feed, matching
// the per-source ring so the two can never drift apart.
const MaxRecentEvents = stats.MaxRecentEvents

// TaggedEvent is a recent event annotated with its originating source.
type TaggedEvent struct {
	Server       string
	FromErrorLog bool
	At           time.Time
	Text         string
}

// Report is one reporting tick's aggregate view over every source.
type Report struct {
	IntervalRequests int
	Interval2xx      int
	Interval4xx      int
	Interval5xx      int
	IntervalBytes    int64
	IntervalClients  int

	TotalRequests int
	TotalBytes    int64
	TotalClients  int
	TotalErrors   int

	RequestsPerSecond float64
	BytesPerSecond    float64

	Recent []TaggedEvent
}

// Compute builds a report from the given snapshots. Request, byte, and status
// sums cover access sources; the error total also includes error log sources.
// Distinct client counts are true set unions, since the same address may
// appear in several servers' logs. elapsed is the time since start or last
// full reset; interval is the reporting refresh interval.
func Compute(snaps []stats.Snapshot, elapsed, interval time.Duration) Report {
	var r Report
	intervalClients := make(map[string]struct{})
	totalClients := make(map[string]struct{})

	for _, s := range snaps {
		if s.Kind == source.Access {
			r.IntervalRequests += s.Interval.Requests
			r.Interval2xx += s.Interval.Status2xx
			r.Interval4xx += s.Interval.Status4xx
			r.Interval5xx += s.Interval.Status5xx
			r.IntervalBytes += s.Interval.Bytes
			r.TotalRequests += s.Total.Requests
			r.TotalBytes += s.Total.Bytes
			for c := range s.Interval.Clients {
				intervalClients[c] = struct{}{}
			}
			for c := range s.Total.Clients {
				totalClients[c] = struct{}{}
			}
		}
		r.TotalErrors += s.Total.Errors

		for _, e := range s.Recent {
			r.Recent = append(r.Recent, TaggedEvent{
				Server:       s.Server,
				FromErrorLog: s.Kind == source.Error,
				At:           e.At,
				Text:         e.Text,
			})
		}
	}

	r.IntervalClients = len(intervalClients)
	r.TotalClients = len(totalClients)

	if secs := elapsed.Seconds(); secs > 0 {
		r.RequestsPerSecond = float64(r.TotalRequests) / secs
	}
	if secs := interval.Seconds(); secs > 0 {
		r.BytesPerSecond = float64(r.IntervalBytes) / secs
	}

	sort.SliceStable(r.Recent, func(i, j int) bool {
		return r.Recent[i].At.Before(r.Recent[j].At)
	})
	if len(r.Recent) > MaxRecentEvents {
		r.Recent = r.Recent[len(r.Recent)-MaxRecentEvents:]
	}

	return r
}
