package compiler

import (
	"strings"

	"github.com/zurustar/blockscript/pkg/world"
)

// Family is the kind of a grid marker.
type Family int

const (
	FamilyNone Family = iota
	FamilyEvent
	FamilyAction
	FamilyCondition
	FamilyElse
	FamilyOpenScope
	FamilyCloseScope
	FamilyFunction
)

var familyNames = map[Family]string{
	FamilyNone:       "none",
	FamilyEvent:      "event",
	FamilyAction:     "action",
	FamilyCondition:  "condition",
	FamilyElse:       "else",
	FamilyOpenScope:  "open",
	FamilyCloseScope: "close",
	FamilyFunction:   "function",
}

func (f Family) String() string {
	if s, ok := familyNames[f]; ok {
		return s
	}
	return "unknown"
}

// ParseFamily maps an authoring name ("event", "action", ...) to a Family.
func ParseFamily(s string) (Family, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range familyNames {
		if name == s && f != FamilyNone {
			return f, true
		}
	}
	return FamilyNone, false
}

// Container slot conventions.
const (
	ContainerSize = 27
	// ValueSlot holds the single value of value-taking actions.
	ValueSlot = 13
	// ExtraSlot holds a secondary value: a radius or a block material.
	ExtraSlot = 22
)

// Label is the text attached to a marker.
type Label struct {
	// Primary selects the opcode.
	Primary string
	// Secondary is a free modifier: "not", "async", a mode, a title, a name.
	Secondary string
	// Target is the logical target selector, empty for the default.
	Target string
}

// Marker is one occupied grid cell.
type Marker struct {
	Family Family
	Label  Label
	// Negate is the condition sign's invert toggle. It is rendered as a
	// leading "!" on the predicate and composes with a "not" label.
	Negate    bool
	Container *world.Inventory
}

// slot returns the item in slot i, or an empty stack.
func (m Marker) slot(i int) world.ItemStack {
	if m.Container == nil {
		return world.ItemStack{}
	}
	return m.Container.Slot(i)
}

// Pos is an integer grid position.
type Pos struct {
	X, Y, Z int
}

// Region bounds a grid scan.
type Region struct {
	Origin Pos
	// Width is the maximum number of cells per horizontal scan.
	Width int
	// Depth is the number of rows per band.
	Depth int
	// Height is the vertical extent covered by bands.
	Height int
	// BandStep is the vertical distance between bands. Zero means 1.
	BandStep int
}

// Grid is the compiler's read-only view of an authored world.
type Grid interface {
	Name() string
	Region() Region
	MarkerAt(p Pos) (Marker, bool)
}

// MapGrid is a Grid backed by a map.
type MapGrid struct {
	name   string
	region Region
	cells  map[Pos]Marker
}

// NewMapGrid creates an empty grid.
func NewMapGrid(name string, region Region) *MapGrid {
	return &MapGrid{name: name, region: region, cells: make(map[Pos]Marker)}
}

func (g *MapGrid) Name() string   { return g.name }
func (g *MapGrid) Region() Region { return g.region }

func (g *MapGrid) MarkerAt(p Pos) (Marker, bool) {
	m, ok := g.cells[p]
	return m, ok
}

// Set places m at p.
func (g *MapGrid) Set(p Pos, m Marker) {
	g.cells[p] = m
}
