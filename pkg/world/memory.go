package world

import (
	"fmt"
	"sync"
)

// PlayerInventorySize is the slot count of a player's own inventory.
const PlayerInventorySize = 36

// MemoryWorld is an in-process World used by tests and scenario replays.
// Every mutation is recorded in a journal so callers can inspect what a
// program did.
type MemoryWorld struct {
	name   string
	online int

	mu       sync.Mutex
	players  []*MemoryPlayer
	entities map[string]Entity
	blocks   map[[3]int]string
	journal  []string
}

// NewMemoryWorld creates an empty world called name.
func NewMemoryWorld(name string) *MemoryWorld {
	return &MemoryWorld{
		name:     name,
		entities: make(map[string]Entity),
		blocks:   make(map[[3]int]string),
	}
}

func (w *MemoryWorld) Name() string { return w.name }

// AddPlayer places p in the world.
func (w *MemoryWorld) AddPlayer(p *MemoryPlayer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p.world = w
	w.players = append(w.players, p)
	w.entities[p.ID()] = p
}

// AddEntity places a non-player entity in the world.
func (w *MemoryWorld) AddEntity(e Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entities[e.ID()] = e
}

// RemoveEntity takes an entity (or player) out of the world.
func (w *MemoryWorld) RemoveEntity(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.entities, id)
	for i, p := range w.players {
		if p.ID() == id {
			w.players = append(w.players[:i:i], w.players[i+1:]...)
			break
		}
	}
}

// SetOnlinePlayers overrides the host-wide online count. When unset the
// world's own player count is reported.
func (w *MemoryWorld) SetOnlinePlayers(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.online = n
}

func (w *MemoryWorld) Players() []Player {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Player, len(w.players))
	for i, p := range w.players {
		out[i] = p
	}
	return out
}

func (w *MemoryWorld) OnlinePlayers() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.online > 0 {
		return w.online
	}
	return len(w.players)
}

func (w *MemoryWorld) Entity(id string) (Entity, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entities[id]
	return e, ok
}

func (w *MemoryWorld) EntityCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entities)
}

func blockKey(loc Location) [3]int {
	b := loc.Block()
	return [3]int{int(b.X), int(b.Y), int(b.Z)}
}

func (w *MemoryWorld) BlockAt(loc Location) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if m, ok := w.blocks[blockKey(loc)]; ok {
		return m
	}
	return "air"
}

func (w *MemoryWorld) SetBlock(loc Location, material string) {
	w.mu.Lock()
	w.blocks[blockKey(loc)] = material
	w.mu.Unlock()
	b := loc.Block()
	w.record("setBlock %g,%g,%g %s", b.X, b.Y, b.Z, material)
}

// PlaceBlock sets a block without journaling it.
func (w *MemoryWorld) PlaceBlock(loc Location, material string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blocks[blockKey(loc)] = material
}

func (w *MemoryWorld) Broadcast(msg string) {
	w.mu.Lock()
	players := append([]*MemoryPlayer(nil), w.players...)
	w.mu.Unlock()
	for _, p := range players {
		p.mu.Lock()
		p.messages = append(p.messages, msg)
		p.mu.Unlock()
	}
	w.record("broadcast %s", msg)
}

// Journal returns every recorded mutation in order.
func (w *MemoryWorld) Journal() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.journal...)
}

func (w *MemoryWorld) record(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.journal = append(w.journal, fmt.Sprintf(format, args...))
}

// MemoryEntity is a plain living entity.
type MemoryEntity struct {
	EntityID   string
	EntityName string
	Loc        Location

	mu        sync.Mutex
	health    float64
	maxHealth float64
}

// NewMemoryEntity creates a living entity at full health.
func NewMemoryEntity(id, name string, maxHealth float64) *MemoryEntity {
	return &MemoryEntity{EntityID: id, EntityName: name, health: maxHealth, maxHealth: maxHealth}
}

func (e *MemoryEntity) ID() string         { return e.EntityID }
func (e *MemoryEntity) Name() string       { return e.EntityName }
func (e *MemoryEntity) Location() Location { return e.Loc }
func (e *MemoryEntity) Armor() float64     { return 0 }
func (e *MemoryEntity) Air() int           { return 300 }
func (e *MemoryEntity) LastDamage() float64 {
	return 0
}

func (e *MemoryEntity) Health() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.health
}

func (e *MemoryEntity) MaxHealth() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxHealth
}

func (e *MemoryEntity) SetHealth(hp float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.health = max(0, min(hp, e.maxHealth))
}

// MemoryPlayer is an in-process Player. Its exported fields set up the
// state conditions read; mutations made by programs go through the methods
// and are journaled on the owning world.
type MemoryPlayer struct {
	PlayerID   string
	PlayerName string

	mu         sync.Mutex
	world      *MemoryWorld
	loc        Location
	health     float64
	maxHealth  float64
	armor      float64
	air        int
	lastDamage float64
	mode       GameMode
	food       int
	saturation float64
	exp        float64
	heldSlot   int
	ping       int
	flying     bool
	sneaking   bool
	sprinting  bool
	inventory  *Inventory
	offHand    ItemStack
	open       *Inventory
	target     *Location
	messages   []string
}

// NewMemoryPlayer creates a player with survival defaults.
func NewMemoryPlayer(id, name string) *MemoryPlayer {
	return &MemoryPlayer{
		PlayerID:   id,
		PlayerName: name,
		health:     20,
		maxHealth:  20,
		air:        300,
		mode:       Survival,
		food:       20,
		saturation: 5,
		inventory:  NewInventory(PlayerInventorySize, name),
	}
}

func (p *MemoryPlayer) ID() string   { return p.PlayerID }
func (p *MemoryPlayer) Name() string { return p.PlayerName }

func (p *MemoryPlayer) record(format string, args ...any) {
	p.mu.Lock()
	w := p.world
	p.mu.Unlock()
	if w != nil {
		w.record(format, args...)
	}
}

func (p *MemoryPlayer) Location() Location {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loc
}

// SetLocation moves the player without journaling it.
func (p *MemoryPlayer) SetLocation(loc Location) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loc = loc
}

func (p *MemoryPlayer) Teleport(loc Location) {
	p.SetLocation(loc)
	p.record("teleport %s %s", p.PlayerName, loc.Format())
}

func (p *MemoryPlayer) Health() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.health
}

func (p *MemoryPlayer) MaxHealth() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxHealth
}

func (p *MemoryPlayer) SetHealth(hp float64) {
	p.mu.Lock()
	p.health = max(0, min(hp, p.maxHealth))
	hp = p.health
	p.mu.Unlock()
	p.record("setHealth %s %g", p.PlayerName, hp)
}

func (p *MemoryPlayer) Armor() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.armor
}

func (p *MemoryPlayer) Air() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.air
}

func (p *MemoryPlayer) LastDamage() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastDamage
}

// SetStats sets the numeric state placeholders report.
func (p *MemoryPlayer) SetStats(armor float64, air int, lastDamage, exp float64, ping int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.armor, p.air, p.lastDamage, p.exp, p.ping = armor, air, lastDamage, exp, ping
}

func (p *MemoryPlayer) SendMessage(msg string) {
	p.mu.Lock()
	p.messages = append(p.messages, msg)
	p.mu.Unlock()
	p.record("message %s %s", p.PlayerName, msg)
}

// Messages returns every message delivered to the player.
func (p *MemoryPlayer) Messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.messages...)
}

func (p *MemoryPlayer) GameMode() GameMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

func (p *MemoryPlayer) SetGameMode(mode GameMode) {
	p.mu.Lock()
	p.mode = mode
	p.mu.Unlock()
	p.record("gamemode %s %s", p.PlayerName, mode)
}

func (p *MemoryPlayer) Food() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.food
}

func (p *MemoryPlayer) SetFood(food int) {
	p.mu.Lock()
	p.food = max(0, min(food, 20))
	food = p.food
	p.mu.Unlock()
	p.record("setFood %s %d", p.PlayerName, food)
}

func (p *MemoryPlayer) Saturation() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saturation
}

func (p *MemoryPlayer) Exp() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exp
}

func (p *MemoryPlayer) HeldSlot() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heldSlot
}

// SetHeldSlot selects the main-hand hotbar slot.
func (p *MemoryPlayer) SetHeldSlot(slot int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.heldSlot = slot
}

func (p *MemoryPlayer) Ping() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ping
}

func (p *MemoryPlayer) IsFlying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flying
}

func (p *MemoryPlayer) IsSneaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sneaking
}

func (p *MemoryPlayer) IsSprinting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sprinting
}

// SetMovement sets the boolean movement state.
func (p *MemoryPlayer) SetMovement(flying, sneaking, sprinting bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flying, p.sneaking, p.sprinting = flying, sneaking, sprinting
}

func (p *MemoryPlayer) Inventory() *Inventory {
	return p.inventory
}

func (p *MemoryPlayer) MainHand() ItemStack {
	return p.inventory.Slot(p.HeldSlot())
}

func (p *MemoryPlayer) OffHand() ItemStack {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offHand
}

// SetOffHand places s in the off hand.
func (p *MemoryPlayer) SetOffHand(s ItemStack) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offHand = s
}

func (p *MemoryPlayer) OpenContainer() *Inventory {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func (p *MemoryPlayer) OpenInventory(inv *Inventory) {
	p.mu.Lock()
	p.open = inv
	p.mu.Unlock()
	p.record("openInventory %s %s %d", p.PlayerName, inv.Title, inv.Size())
}

func (p *MemoryPlayer) CloseInventory() {
	p.mu.Lock()
	p.open = nil
	p.mu.Unlock()
	p.record("closeInventory %s", p.PlayerName)
}

// SetTargetBlock sets what the player is looking at; nil clears it.
func (p *MemoryPlayer) SetTargetBlock(loc *Location) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.target = loc
}

func (p *MemoryPlayer) TargetBlock(maxDistance int) (Location, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.target == nil {
		return Location{}, false
	}
	if p.target.Distance(p.loc) > float64(maxDistance) {
		return Location{}, false
	}
	return p.target.Block(), true
}
