package vm

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/zurustar/blockscript/pkg/store"
	"github.com/zurustar/blockscript/pkg/world"
)

// missLog collects skipped-instruction reports.
type missLog struct {
	mu     sync.Mutex
	errors []*RuntimeError
}

func (m *missLog) handle(_ context.Context, err *RuntimeError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, err)
}

func (m *missLog) count(t ErrorType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.errors {
		if e.Type == t {
			n++
		}
	}
	return n
}

// fixture is a world with one player, a program store and an interpreter.
type fixture struct {
	world  *world.MemoryWorld
	alice  *world.MemoryPlayer
	store  *store.MemoryStore
	sched  *TickScheduler
	misses *missLog
	vm     *Interpreter
}

func newFixture(t *testing.T, program []string, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		world:  world.NewMemoryWorld("lobby"),
		alice:  world.NewMemoryPlayer("p1", "alice"),
		store:  store.NewMemoryStore(),
		sched:  NewTickScheduler(),
		misses: &missLog{},
	}
	f.world.AddPlayer(f.alice)
	if err := f.store.SetLines(context.Background(), "lobby", program); err != nil {
		t.Fatal(err)
	}
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithScheduler(f.sched),
		WithSpawner(InlineSpawner),
		WithRand(rand.NewPCG(1, 2)),
		WithMissHandler(f.misses.handle),
	}
	f.vm = New(f.store, append(base, opts...)...)
	return f
}

// fire sends ev from alice.
func (f *fixture) fire(t *testing.T, ev *world.Event) []State {
	t.Helper()
	states, err := f.vm.Fire(context.Background(), f.world, f.alice, ev)
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	return states
}

func (f *fixture) advance(n int) int {
	return f.sched.Advance(context.Background(), n)
}

func chat(msg string) *world.Event {
	ev := world.NewEvent("chat")
	ev.Message = msg
	return ev
}
