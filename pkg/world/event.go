package world

import (
	"sync/atomic"
	"time"
)

// Event is one occurrence of a host trigger. The runtime reads it as an
// opaque context: only the fields below are ever consulted.
type Event struct {
	// Kind is the event opcode name, e.g. "join" or "chat".
	Kind string

	// Timestamp is when the host observed the event.
	Timestamp time.Time

	// Message is the chat text for chat events.
	Message string

	// ClickedSlot is the slot index for inventory clicks.
	ClickedSlot int

	// NewSlot and OldSlot describe a held-slot transition.
	NewSlot int
	OldSlot int

	// Damage is the amount dealt for damage events.
	Damage float64

	// Block is the location of the block involved, if any.
	Block *Location

	// Item is the item involved (clicked, dropped, picked up), if any.
	Item *ItemStack

	// Attacker and Victim are set for death and damage events.
	Attacker Entity
	Victim   Entity

	cancelled atomic.Bool
}

// NewEvent creates an event of the given kind stamped with the current time.
func NewEvent(kind string) *Event {
	return &Event{
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

// Cancel marks the host event as suppressed. It does not stop any program.
func (e *Event) Cancel() {
	e.cancelled.Store(true)
}

// Cancelled reports whether some program cancelled the event.
func (e *Event) Cancelled() bool {
	return e.cancelled.Load()
}
