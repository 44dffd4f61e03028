package layout

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/zurustar/blockscript/pkg/world"
)

// Scenario describes a world fixture and the events to fire against it.
type Scenario struct {
	World    string       `yaml:"world"`
	Online   int          `yaml:"online"`
	Players  []PlayerSpec `yaml:"players"`
	Entities []EntitySpec `yaml:"entities"`
	Blocks   []BlockSpec  `yaml:"blocks"`
	Events   []EventSpec  `yaml:"events"`
}

// PlayerSpec sets up one player. Zero values keep the player defaults.
type PlayerSpec struct {
	ID        string     `yaml:"id"`
	Name      string     `yaml:"name"`
	Location  []float64  `yaml:"location"`
	Health    float64    `yaml:"health"`
	Food      int        `yaml:"food"`
	Flying    bool       `yaml:"flying"`
	Sneaking  bool       `yaml:"sneaking"`
	Sprinting bool       `yaml:"sprinting"`
	HeldSlot  int        `yaml:"held_slot"`
	Inventory []ItemSpec `yaml:"inventory"`
	OffHand   *ItemSpec  `yaml:"off_hand"`
	Looking   []float64  `yaml:"looking_at"`
}

// EntitySpec sets up a non-player living entity.
type EntitySpec struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	MaxHealth float64   `yaml:"max_health"`
	Location  []float64 `yaml:"location"`
}

// BlockSpec places a block.
type BlockSpec struct {
	At       []float64 `yaml:"at"`
	Material string    `yaml:"material"`
}

// EventSpec is one event firing. Ticks is how far the scheduler advances
// after the event.
type EventSpec struct {
	Kind        string    `yaml:"kind"`
	Trigger     string    `yaml:"trigger"`
	Message     string    `yaml:"message"`
	ClickedSlot int       `yaml:"clicked_slot"`
	NewSlot     int       `yaml:"new_slot"`
	OldSlot     int       `yaml:"old_slot"`
	Damage      float64   `yaml:"damage"`
	Block       []float64 `yaml:"block"`
	Item        *ItemSpec `yaml:"item"`
	Attacker    string    `yaml:"attacker"`
	Victim      string    `yaml:"victim"`
	Ticks       int       `yaml:"ticks"`
}

// Step is a resolved event ready to fire.
type Step struct {
	Event   *world.Event
	Trigger world.Entity
	Ticks   int
}

// ParseScenario decodes a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if s.World == "" {
		return nil, fmt.Errorf("invalid scenario: missing world")
	}
	for i, ev := range s.Events {
		if ev.Kind == "" {
			return nil, fmt.Errorf("invalid scenario: event %d has no kind", i)
		}
		if ev.Ticks < 0 {
			return nil, fmt.Errorf("invalid scenario: event %d has negative ticks", i)
		}
	}
	return &s, nil
}

// LoadScenario reads and decodes a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	src, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseScenario(src.Content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func location(v []float64, what string) (world.Location, error) {
	switch len(v) {
	case 3:
		return world.Location{X: v[0], Y: v[1], Z: v[2]}, nil
	case 5:
		return world.Location{X: v[0], Y: v[1], Z: v[2], Yaw: v[3], Pitch: v[4]}, nil
	}
	return world.Location{}, fmt.Errorf("%s: want 3 or 5 coordinates, got %d", what, len(v))
}

// Build creates the scenario's world. Setup is applied before players
// join, so the world journal starts empty.
func (s *Scenario) Build() (*world.MemoryWorld, error) {
	w := world.NewMemoryWorld(s.World)
	if s.Online > 0 {
		w.SetOnlinePlayers(s.Online)
	}

	for _, ps := range s.Players {
		if ps.ID == "" {
			return nil, fmt.Errorf("player without id")
		}
		name := ps.Name
		if name == "" {
			name = ps.ID
		}
		p := world.NewMemoryPlayer(ps.ID, name)
		if ps.Location != nil {
			loc, err := location(ps.Location, "player "+ps.ID)
			if err != nil {
				return nil, err
			}
			p.SetLocation(loc)
		}
		if ps.Health > 0 {
			p.SetHealth(ps.Health)
		}
		if ps.Food > 0 {
			p.SetFood(ps.Food)
		}
		p.SetMovement(ps.Flying, ps.Sneaking, ps.Sprinting)
		p.SetHeldSlot(ps.HeldSlot)
		for _, it := range ps.Inventory {
			p.Inventory().Add(it.Stack())
		}
		if ps.OffHand != nil {
			p.SetOffHand(ps.OffHand.Stack())
		}
		if ps.Looking != nil {
			loc, err := location(ps.Looking, "player "+ps.ID+" looking_at")
			if err != nil {
				return nil, err
			}
			p.SetTargetBlock(&loc)
		}
		w.AddPlayer(p)
	}

	for _, es := range s.Entities {
		if es.ID == "" {
			return nil, fmt.Errorf("entity without id")
		}
		maxHealth := es.MaxHealth
		if maxHealth <= 0 {
			maxHealth = 20
		}
		e := world.NewMemoryEntity(es.ID, es.Name, maxHealth)
		if es.Location != nil {
			loc, err := location(es.Location, "entity "+es.ID)
			if err != nil {
				return nil, err
			}
			e.Loc = loc
		}
		w.AddEntity(e)
	}

	for i, b := range s.Blocks {
		loc, err := location(b.At, fmt.Sprintf("block %d", i))
		if err != nil {
			return nil, err
		}
		w.PlaceBlock(loc, b.Material)
	}
	return w, nil
}

// Steps resolves the scenario's events against w.
func (s *Scenario) Steps(w world.World) ([]Step, error) {
	entity := func(id, role string, i int) (world.Entity, error) {
		if id == "" {
			return nil, nil
		}
		e, ok := w.Entity(id)
		if !ok {
			return nil, fmt.Errorf("event %d: unknown %s %q", i, role, id)
		}
		return e, nil
	}

	steps := make([]Step, 0, len(s.Events))
	for i, es := range s.Events {
		ev := world.NewEvent(es.Kind)
		ev.Message = es.Message
		ev.ClickedSlot = es.ClickedSlot
		ev.NewSlot = es.NewSlot
		ev.OldSlot = es.OldSlot
		ev.Damage = es.Damage
		if es.Block != nil {
			loc, err := location(es.Block, fmt.Sprintf("event %d block", i))
			if err != nil {
				return nil, err
			}
			ev.Block = &loc
		}
		if es.Item != nil {
			it := es.Item.Stack()
			ev.Item = &it
		}

		var err error
		if ev.Attacker, err = entity(es.Attacker, "attacker", i); err != nil {
			return nil, err
		}
		if ev.Victim, err = entity(es.Victim, "victim", i); err != nil {
			return nil, err
		}
		trigger, err := entity(es.Trigger, "trigger", i)
		if err != nil {
			return nil, err
		}
		steps = append(steps, Step{Event: ev, Trigger: trigger, Ticks: es.Ticks})
	}
	return steps, nil
}
