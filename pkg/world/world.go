// Package world defines the host contracts the blockscript runtime reads and
// mutates: actors, worlds, items, inventories and firing events.
// The host game owns all of this state; the runtime only calls through these
// interfaces and never guards them with its own locks.
package world

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Location is a position inside a world. Yaw and Pitch are only meaningful
// for actor locations.
type Location struct {
	X, Y, Z    float64
	Yaw, Pitch float64
}

// Block returns the location of the block containing l.
func (l Location) Block() Location {
	return Location{X: math.Floor(l.X), Y: math.Floor(l.Y), Z: math.Floor(l.Z)}
}

// Below returns the block directly under l.
func (l Location) Below() Location {
	b := l.Block()
	b.Y--
	return b
}

// SameBlock reports whether l and o fall in the same block.
func (l Location) SameBlock(o Location) bool {
	a, b := l.Block(), o.Block()
	return a.X == b.X && a.Y == b.Y && a.Z == b.Z
}

// Distance returns the euclidean distance between l and o, ignoring rotation.
func (l Location) Distance(o Location) float64 {
	dx, dy, dz := l.X-o.X, l.Y-o.Y, l.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Format renders l as "x|y|z|yaw|pitch", the same shape teleport accepts.
func (l Location) Format() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s",
		formatFloat(l.X), formatFloat(l.Y), formatFloat(l.Z),
		formatFloat(l.Yaw), formatFloat(l.Pitch))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// GameMode is an actor's interaction mode.
type GameMode string

const (
	Survival  GameMode = "survival"
	Creative  GameMode = "creative"
	Adventure GameMode = "adventure"
	Spectator GameMode = "spectator"
)

// ParseGameMode maps authoring text onto a GameMode.
func ParseGameMode(s string) (GameMode, bool) {
	mode := GameMode(strings.ToLower(strings.TrimSpace(s)))
	switch mode {
	case Survival, Creative, Adventure, Spectator:
		return mode, true
	}
	return "", false
}

// Entity is anything addressable in a world.
type Entity interface {
	ID() string
	Name() string
	Location() Location
}

// Living is an entity with health.
type Living interface {
	Entity
	Health() float64
	MaxHealth() float64
	SetHealth(hp float64)
	Armor() float64
	Air() int
	LastDamage() float64
}

// Player is a living entity controlled by a connected user.
type Player interface {
	Living
	SendMessage(msg string)
	GameMode() GameMode
	SetGameMode(mode GameMode)
	Teleport(loc Location)
	Food() int
	SetFood(food int)
	Saturation() float64
	Exp() float64
	HeldSlot() int
	Ping() int
	IsFlying() bool
	IsSneaking() bool
	IsSprinting() bool
	Inventory() *Inventory
	MainHand() ItemStack
	OffHand() ItemStack
	// OpenContainer returns the inventory the player is looking at, or nil.
	OpenContainer() *Inventory
	OpenInventory(inv *Inventory)
	CloseInventory()
	// TargetBlock returns the first solid block on the player's line of
	// sight within maxDistance blocks.
	TargetBlock(maxDistance int) (Location, bool)
}

// World is the sandbox a program belongs to.
type World interface {
	Name() string
	// Players returns the players currently in this world, in a stable order.
	Players() []Player
	// OnlinePlayers returns the number of players connected to the host.
	OnlinePlayers() int
	// Entity re-fetches an entity by id. The boolean is false once the
	// entity has left the world.
	Entity(id string) (Entity, bool)
	EntityCount() int
	BlockAt(loc Location) string
	SetBlock(loc Location, material string)
	Broadcast(msg string)
}
