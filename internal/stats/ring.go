package stats

import "time"

// Event is one formatted entry in a source's recent-events feed.
type Event struct {
	At   time.Time
	Text string
}

// eventRing is a fixed-capacity circular buffer of events. When full, the
// oldest entry is silently evicted. Not internally synchronized: the owning
// SourceStats guards all access under its own lock so that a push and the
// counter updates around it form one critical section.
type eventRing struct {
	events   []Event
	head     int // next write position
	count    int
	capacity int
}

func newEventRing(capacity int) *eventRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &eventRing{
		events:   make([]Event, capacity),
		capacity: capacity,
	}
}

// push adds an event, evicting the oldest if at capacity.
func (r *eventRing) push(e Event) {
	r.events[r.head] = e
	r.head = (r.head + 1) % r.capacity
	if r.count < r.capacity {
		r.count++
	}
}

// snapshot returns a copy of all buffered events in chronological order.
func (r *eventRing) snapshot() []Event {
	result := make([]Event, r.count)
	if r.count < r.capacity {
		copy(result, r.events[:r.count])
	} else {
		n := copy(result, r.events[r.head:])
		copy(result[n:], r.events[:r.head])
	}
	return result
}

func (r *eventRing) clear() {
	r.head = 0
	r.count = 0
}
