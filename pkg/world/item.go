package world

import (
	"slices"
	"sync"
)

// ItemStack is an item with its metadata.
type ItemStack struct {
	Material string
	Name     string
	Amount   int
	Lore     []string
}

// IsEmpty reports whether the stack represents an empty slot.
func (s ItemStack) IsEmpty() bool {
	return s.Material == "" || s.Amount <= 0
}

// SimilarTo compares everything except the amount.
func (s ItemStack) SimilarTo(o ItemStack) bool {
	return s.Material == o.Material && s.Name == o.Name && slices.Equal(s.Lore, o.Lore)
}

// Equal compares the full stack including the amount.
func (s ItemStack) Equal(o ItemStack) bool {
	return s.SimilarTo(o) && s.Amount == o.Amount
}

// Inventory is a fixed-size container of item stacks.
type Inventory struct {
	Title string

	mu    sync.Mutex
	slots []ItemStack
}

// NewInventory creates an empty inventory with size slots.
func NewInventory(size int, title string) *Inventory {
	return &Inventory{Title: title, slots: make([]ItemStack, size)}
}

// Size returns the number of slots.
func (inv *Inventory) Size() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return len(inv.slots)
}

// Slot returns the stack in slot i. Out-of-range slots are empty.
func (inv *Inventory) Slot(i int) ItemStack {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if i < 0 || i >= len(inv.slots) {
		return ItemStack{}
	}
	return inv.slots[i]
}

// SetSlot replaces the stack in slot i. Out-of-range slots are ignored.
func (inv *Inventory) SetSlot(i int, s ItemStack) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if i >= 0 && i < len(inv.slots) {
		inv.slots[i] = s
	}
}

// Items returns a copy of every slot, empty ones included.
func (inv *Inventory) Items() []ItemStack {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]ItemStack, len(inv.slots))
	copy(out, inv.slots)
	return out
}

// Add merges s into similar stacks or the first empty slot.
// It returns false when no slot could take the stack.
func (inv *Inventory) Add(s ItemStack) bool {
	if s.IsEmpty() {
		return false
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for i := range inv.slots {
		if !inv.slots[i].IsEmpty() && inv.slots[i].SimilarTo(s) {
			inv.slots[i].Amount += s.Amount
			return true
		}
	}
	for i := range inv.slots {
		if inv.slots[i].IsEmpty() {
			inv.slots[i] = s
			return true
		}
	}
	return false
}

// Remove takes s.Amount items similar to s out of the inventory.
// It returns the number of items actually removed.
func (inv *Inventory) Remove(s ItemStack) int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	left := s.Amount
	for i := range inv.slots {
		if left == 0 {
			break
		}
		if inv.slots[i].IsEmpty() || !inv.slots[i].SimilarTo(s) {
			continue
		}
		n := min(left, inv.slots[i].Amount)
		inv.slots[i].Amount -= n
		if inv.slots[i].Amount == 0 {
			inv.slots[i] = ItemStack{}
		}
		left -= n
	}
	return s.Amount - left
}

// Clear empties every slot.
func (inv *Inventory) Clear() {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	clear(inv.slots)
}

// ContainsSimilar reports whether some stack shares s's metadata.
func (inv *Inventory) ContainsSimilar(s ItemStack) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for _, it := range inv.slots {
		if !it.IsEmpty() && it.SimilarTo(s) {
			return true
		}
	}
	return false
}

// CountMaterial sums the amounts of every stack of material.
func (inv *Inventory) CountMaterial(material string) int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	n := 0
	for _, it := range inv.slots {
		if !it.IsEmpty() && it.Material == material {
			n += it.Amount
		}
	}
	return n
}
