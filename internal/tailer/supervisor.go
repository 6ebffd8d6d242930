package tailer

import (
	"context"
	"sync"
	"time"
)

const defaultJoinTimeout = 2 * time.Second

// Supervisor owns the lifetime of a fixed set of tailer goroutines. Sources
// are not added or removed after startup.
type Supervisor struct {
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	joinTimeout time.Duration
}

// StartAll launches one goroutine per tailer under a shared cancellable
// context derived from ctx.
func StartAll(ctx context.Context, tailers []*Tailer) *Supervisor {
	ctx, cancel := context.WithCancel(ctx)
	s := &Supervisor{
		cancel:      cancel,
		joinTimeout: defaultJoinTimeout,
	}

	for _, t := range tailers {
		t := t
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			t.Run(ctx)
		}()
	}
	return s
}

// StopAll signals every tailer to stop and waits a bounded time for them to
// exit. Tailers hold no resources that outlive the process, so detaching
// after the bound is safe.
func (s *Supervisor) StopAll() {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.joinTimeout):
	}
}
