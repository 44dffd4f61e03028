// Package vm provides the event-triggered interpreter for blockscript
// programs.
//
// On every host event the interpreter reads the world's program from the
// store, selects the lines whose first token names the event, parses each
// into a Block and executes it:
//   - instructions dispatch by opcode-name prefix to action handlers
//   - if/ifnot/else run their scope bodies as nested blocks
//   - delay suspends the current block as a Continuation on the Scheduler
//   - call runs every line of a named program, inline or via the Spawner
//
// Nothing a program does aborts its line; every skipped instruction is
// reported as a *RuntimeError to the miss handler.
package vm

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zurustar/blockscript/pkg/logger"
	"github.com/zurustar/blockscript/pkg/opcode"
	"github.com/zurustar/blockscript/pkg/store"
	"github.com/zurustar/blockscript/pkg/world"
)

// MaxCallDepth is the default limit on nested program calls.
const MaxCallDepth = 1000

// State is the lifecycle of one execution.
type State int

const (
	Idle State = iota
	Dispatching
	Suspended
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dispatching:
		return "dispatching"
	case Suspended:
		return "suspended"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MissHandler receives every instruction the interpreter skipped.
type MissHandler func(ctx context.Context, err *RuntimeError)

// Interpreter executes programs. It is safe for concurrent use; the only
// state shared between executions is the active-execution counter.
type Interpreter struct {
	store     store.ProgramStore
	scheduler Scheduler
	spawner   Spawner
	targets   *TargetResolver
	evaluator *Evaluator
	expander  Expander
	rng       *lockedRand
	maxDepth  int

	log    *slog.Logger
	tracer trace.Tracer
	onMiss MissHandler

	wg     sync.WaitGroup
	active atomic.Int64
}

// Option is a functional option for configuring the Interpreter.
type Option func(*Interpreter)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(i *Interpreter) {
		i.log = log
	}
}

// WithScheduler sets where delayed continuations go.
func WithScheduler(s Scheduler) Option {
	return func(i *Interpreter) {
		i.scheduler = s
	}
}

// WithSpawner sets how async calls are started.
func WithSpawner(s Spawner) Option {
	return func(i *Interpreter) {
		i.spawner = s
	}
}

// WithRand sets the source for random targets and random items.
func WithRand(src rand.Source) Option {
	return func(i *Interpreter) {
		i.rng = newLockedRand(src)
		i.targets = &TargetResolver{rng: i.rng}
	}
}

// WithTracer sets the tracer used for line and resume spans.
func WithTracer(t trace.Tracer) Option {
	return func(i *Interpreter) {
		i.tracer = t
	}
}

// WithMissHandler replaces the default debug log for skipped instructions.
func WithMissHandler(h MissHandler) Option {
	return func(i *Interpreter) {
		i.onMiss = h
	}
}

// WithMaxCallDepth sets the nested call limit.
func WithMaxCallDepth(n int) Option {
	return func(i *Interpreter) {
		i.maxDepth = n
	}
}

// New creates an interpreter reading programs from st.
func New(st store.ProgramStore, opts ...Option) *Interpreter {
	i := &Interpreter{
		store:     st,
		spawner:   GoSpawner,
		evaluator: &Evaluator{},
		maxDepth:  MaxCallDepth,
		log:       logger.GetLogger(),
		tracer:    otel.Tracer("blockscript/vm"),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.scheduler == nil {
		i.scheduler = NewTickScheduler()
	}
	if i.rng == nil {
		seed := uint64(time.Now().UnixNano())
		i.rng = newLockedRand(rand.NewPCG(seed, seed>>1))
		i.targets = &TargetResolver{rng: i.rng}
	}
	if i.onMiss == nil {
		i.onMiss = func(_ context.Context, err *RuntimeError) {
			if err.IsFatal() {
				i.log.Warn("call aborted", "type", string(err.Type), "error", err.Error())
				return
			}
			i.log.Debug("instruction skipped", "type", string(err.Type), "error", err.Error())
		}
	}
	return i
}

// Scheduler returns the scheduler continuations are handed to.
func (i *Interpreter) Scheduler() Scheduler {
	return i.scheduler
}

// Active returns the number of executions currently dispatching.
func (i *Interpreter) Active() int {
	return int(i.active.Load())
}

// Wait blocks until every async call started so far has finished.
func (i *Interpreter) Wait() {
	i.wg.Wait()
}

func (i *Interpreter) miss(ctx context.Context, err *RuntimeError) {
	i.onMiss(ctx, err)
}

// Fire runs every line of w's program whose first token names ev.Kind.
// trigger is the entity that caused the event. The returned states are in
// program order, one per selected line.
func (i *Interpreter) Fire(ctx context.Context, w world.World, trigger world.Entity, ev *world.Event) ([]State, error) {
	if ev == nil {
		return nil, fmt.Errorf("fire on %s: nil event", w.Name())
	}
	lines, err := i.store.Lines(ctx, w.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to load program for %s: %w", w.Name(), err)
	}

	b := Binding{World: w, Event: ev}
	if trigger != nil {
		b.TriggerID = trigger.ID()
	}

	var states []State
	for idx, line := range lines {
		if opcode.Head(line) != opcode.Cmd(ev.Kind) {
			continue
		}
		states = append(states, i.runLine(ctx, idx, line, b))
	}
	return states, nil
}

func (i *Interpreter) runLine(ctx context.Context, idx int, line string, b Binding) State {
	ctx, span := i.tracer.Start(ctx, "vm.line", trace.WithAttributes(
		attribute.String("world.id", b.World.Name()),
		attribute.String("event.kind", b.Event.Kind),
		attribute.Int("line.index", idx),
	))
	defer span.End()

	_, block, misses := ParseLine(line)
	for _, m := range misses {
		i.miss(ctx, m)
	}
	state := i.Execute(ctx, block, b, 0)
	span.SetAttributes(attribute.String("state", state.String()))
	return state
}

// Execute runs block from node start. It returns Suspended when a delay
// handed the rest of block to the scheduler, Done otherwise.
func (i *Interpreter) Execute(ctx context.Context, block Block, b Binding, start int) State {
	i.active.Add(1)
	defer i.active.Add(-1)

	for pc := start; pc < len(block); pc++ {
		if ctx.Err() != nil {
			return Done
		}
		switch n := block[pc].(type) {
		case *If:
			i.branch(ctx, n, b)
		case *Instruction:
			tok := n.Token
			switch {
			case tok.Is(opcode.Delay):
				if i.delay(ctx, tok, block, pc+1, b) {
					return Suspended
				}
			case tok.Is(opcode.Call):
				i.call(ctx, tok, b)
			default:
				i.dispatch(ctx, tok, b)
			}
		}
	}
	return Done
}

// branch evaluates an If and runs exactly one of its bodies. A body's own
// delay suspends that body only.
func (i *Interpreter) branch(ctx context.Context, n *If, b Binding) {
	var actor world.Entity
	if target, err := i.targets.Resolve(n.Cond.TargetOr(opcode.TargetSelf), b); err == nil {
		actor = target
	}
	ok, err := i.evaluator.Eval(n.Cond, actor, b)
	if err != nil {
		if re, isRE := AsRuntimeError(err); isRE {
			i.miss(ctx, re)
		}
		ok = false
	}
	switch {
	case ok:
		i.Execute(ctx, n.Body, b, 0)
	case n.Else != nil:
		i.Execute(ctx, n.Else, b, 0)
	}
}

// delay suspends the rest of block. It reports false when execution
// should continue inline.
func (i *Interpreter) delay(ctx context.Context, tok opcode.Token, block Block, next int, b Binding) bool {
	var actor world.Entity
	if target, err := i.targets.Resolve(tok.TargetOr(opcode.TargetSelf), b); err == nil {
		actor = target
	}
	ticks, err := opcode.ParseInt("eq", i.expander.Expand(tok.Eq, actor, b.Event, b.World))
	if err != nil {
		i.miss(ctx, NewParseMiss(tok.Raw, err))
		return false
	}
	if ticks <= 0 {
		return false
	}
	c := Continuation{ID: uuid.New(), Block: block, PC: next, Binding: b}
	i.log.Debug("execution suspended", "continuation", c.ID.String(), "ticks", ticks, "pc", next)
	i.scheduler.Schedule(ticks, c, i.Resume)
	return true
}

// Resume continues a suspended execution. It is the ResumeFunc handed to
// the scheduler.
func (i *Interpreter) Resume(ctx context.Context, c Continuation) {
	ctx, span := i.tracer.Start(ctx, "vm.resume", trace.WithAttributes(
		attribute.String("continuation.id", c.ID.String()),
		attribute.Int("continuation.pc", c.PC),
	))
	defer span.End()
	state := i.Execute(ctx, c.Block, c.Binding, c.PC)
	span.SetAttributes(attribute.String("state", state.String()))
}

// call runs the named program: every line headed function(<name>).
func (i *Interpreter) call(ctx context.Context, tok opcode.Token, b Binding) {
	name := tok.Eq
	if name == "" {
		i.miss(ctx, NewResolutionMiss(tok.Raw, "call without program name"))
		return
	}
	depth := b.Depth + 1
	if depth > i.maxDepth {
		i.miss(ctx, NewStackOverflowError(tok.Raw, depth, i.maxDepth))
		return
	}

	lines, err := i.store.Lines(ctx, b.World.Name())
	if err != nil {
		i.miss(ctx, &RuntimeError{Type: ErrorResolutionMiss, Message: "program store", Token: tok.Raw, Err: err})
		return
	}
	var blocks []Block
	for _, line := range lines {
		head, block, misses := ParseLine(line)
		if !head.Is(opcode.Function) || head.Eq != name {
			continue
		}
		for _, m := range misses {
			i.miss(ctx, m)
		}
		blocks = append(blocks, block)
	}
	if len(blocks) == 0 {
		i.miss(ctx, NewResolutionMiss(tok.Raw, "no program named %q", name))
		return
	}

	nb := b
	nb.Depth = depth
	run := func(ctx context.Context) {
		for _, block := range blocks {
			i.Execute(ctx, block, nb, 0)
		}
	}

	switch tok.Type {
	case opcode.CallAsync:
		// The async execution is never cancelled by its caller.
		actx := context.WithoutCancel(ctx)
		i.wg.Add(1)
		i.spawner.Spawn(func() {
			defer i.wg.Done()
			run(actx)
		})
	case "", opcode.CallSync:
		run(ctx)
	default:
		i.miss(ctx, NewResolutionMiss(tok.Raw, "unknown call mode %q", tok.Type))
	}
}

// dispatch resolves the target and runs the instruction's handler.
func (i *Interpreter) dispatch(ctx context.Context, tok opcode.Token, b Binding) {
	h, ok := lookupHandler(tok)
	if !ok {
		i.miss(ctx, NewResolutionMiss(tok.Raw, "unknown opcode %q", tok.Name))
		return
	}
	c := &call{tok: tok, b: b}
	target, err := i.targets.Resolve(tok.TargetOr(opcode.TargetSelf), b)
	switch {
	case err == nil:
		c.target = target
	case !h.untargeted:
		re, _ := AsRuntimeError(err)
		re.Token = tok.Raw
		i.miss(ctx, re)
		return
	}
	if b.World == nil {
		i.miss(ctx, NewResolutionMiss(tok.Raw, "no world"))
		return
	}
	if err := h.fn(i, ctx, c); err != nil {
		if re, ok := AsRuntimeError(err); ok {
			i.miss(ctx, re)
			return
		}
		i.miss(ctx, &RuntimeError{Type: ErrorResolutionMiss, Message: "handler failed", Token: tok.Raw, Err: err})
	}
}
