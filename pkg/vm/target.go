package vm

import (
	"math/rand/v2"
	"sync"

	"github.com/zurustar/blockscript/pkg/opcode"
	"github.com/zurustar/blockscript/pkg/world"
)

// Binding is what an execution runs against. It is copied by value into
// continuations; World and Event are references to host-owned state.
type Binding struct {
	World world.World
	// TriggerID identifies the triggering entity; "self" is re-fetched
	// through World on every use.
	TriggerID string
	Event     *world.Event
	// Depth is the sync/async call nesting depth.
	Depth int
}

// lockedRand serializes access to a rand.Rand shared by concurrent
// executions.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedRand(src rand.Source) *lockedRand {
	return &lockedRand{r: rand.New(src)}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// TargetResolver maps a logical target selector onto an entity.
type TargetResolver struct {
	rng *lockedRand
}

// NewTargetResolver creates a resolver drawing "random" targets from src.
func NewTargetResolver(src rand.Source) *TargetResolver {
	return &TargetResolver{rng: newLockedRand(src)}
}

// Resolve returns the entity for selector, or a resolution miss. Each call
// with "random" makes a fresh draw. Callers map an undeclared target to
// "self" with Token.TargetOr.
func (r *TargetResolver) Resolve(selector string, b Binding) (world.Entity, error) {
	switch selector {
	case opcode.TargetSelf:
		if b.World == nil || b.TriggerID == "" {
			return nil, NewResolutionMiss("", "no triggering entity")
		}
		e, ok := b.World.Entity(b.TriggerID)
		if !ok {
			return nil, NewResolutionMiss("", "triggering entity %s left the world", b.TriggerID)
		}
		return e, nil

	case opcode.TargetAttacker, opcode.TargetVictim:
		if b.Event == nil || !opcode.IsCombatEvent(opcode.Cmd(b.Event.Kind)) {
			return nil, NewResolutionMiss("", "%s needs a death or damage event", selector)
		}
		e := b.Event.Victim
		if selector == opcode.TargetAttacker {
			e = b.Event.Attacker
		}
		if e == nil {
			return nil, NewResolutionMiss("", "event has no %s", selector)
		}
		return e, nil

	case opcode.TargetRandom:
		if b.World == nil {
			return nil, NewResolutionMiss("", "no world")
		}
		players := b.World.Players()
		if len(players) == 0 {
			return nil, NewResolutionMiss("", "no players online")
		}
		return players[r.rng.IntN(len(players))], nil
	}
	return nil, NewResolutionMiss("", "unknown target %q", selector)
}
