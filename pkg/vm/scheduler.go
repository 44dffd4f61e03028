package vm

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Continuation is a suspended execution: the block being run, the node to
// resume at and the binding it ran with. It holds no stack frame.
type Continuation struct {
	ID      uuid.UUID
	Block   Block
	PC      int
	Binding Binding
}

// ResumeFunc runs a continuation when it comes due.
type ResumeFunc func(ctx context.Context, c Continuation)

// Scheduler defers continuations by a number of host ticks.
type Scheduler interface {
	Schedule(ticks int, c Continuation, resume ResumeFunc)
}

type scheduled struct {
	due    uint64
	seq    uint64
	cont   Continuation
	resume ResumeFunc
}

// TickScheduler is a Scheduler driven by explicit ticks. Continuations due
// on the same tick run in scheduling order.
type TickScheduler struct {
	mu    sync.Mutex
	now   uint64
	seq   uint64
	queue []scheduled
}

// NewTickScheduler creates a scheduler at tick zero.
func NewTickScheduler() *TickScheduler {
	return &TickScheduler{}
}

// Schedule queues c to run ticks ticks from now. ticks below one are
// treated as one.
func (s *TickScheduler) Schedule(ticks int, c Continuation, resume ResumeFunc) {
	if ticks < 1 {
		ticks = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.queue = append(s.queue, scheduled{
		due:    s.now + uint64(ticks),
		seq:    s.seq,
		cont:   c,
		resume: resume,
	})
	sort.Slice(s.queue, func(i, j int) bool {
		if s.queue[i].due != s.queue[j].due {
			return s.queue[i].due < s.queue[j].due
		}
		return s.queue[i].seq < s.queue[j].seq
	})
}

// Advance moves time forward n ticks, one at a time, running everything
// that comes due. Continuations scheduled while running wait for a later
// tick. It returns how many continuations ran.
func (s *TickScheduler) Advance(ctx context.Context, n int) int {
	ran := 0
	for range n {
		if ctx.Err() != nil {
			return ran
		}
		for _, item := range s.tick() {
			item.resume(ctx, item.cont)
			ran++
		}
	}
	return ran
}

// tick increments the clock and pops the continuations now due.
func (s *TickScheduler) tick() []scheduled {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now++
	i := 0
	for i < len(s.queue) && s.queue[i].due <= s.now {
		i++
	}
	due := append([]scheduled(nil), s.queue[:i]...)
	s.queue = s.queue[i:]
	return due
}

// Run advances one tick per interval until ctx ends.
func (s *TickScheduler) Run(ctx context.Context, interval time.Duration) error {
	return s.RunFor(ctx, interval, -1)
}

// RunFor advances one tick per interval until n ticks have passed or ctx
// ends. A negative n has no limit.
func (s *TickScheduler) RunFor(ctx context.Context, interval time.Duration, n int) error {
	if n == 0 {
		return ctx.Err()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for ran := 0; n < 0 || ran < n; ran++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Advance(ctx, 1)
		}
	}
	return nil
}

// Now returns the current tick.
func (s *TickScheduler) Now() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of queued continuations.
func (s *TickScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Clear drops every queued continuation.
func (s *TickScheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = s.queue[:0]
}
