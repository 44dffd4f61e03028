package vm

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/zurustar/blockscript/pkg/opcode"
	"github.com/zurustar/blockscript/pkg/world"
)

// negation says how a predicate's negated form combines operands.
type negation int

const (
	// negateAll holds when no operand matches.
	negateAll negation = iota
	// negateFirst holds as soon as one operand fails to match.
	negateFirst
)

const negatedSuffix = "_no"

// matcher tests one operand.
type matcher func(c *evalContext, operand string) (bool, error)

type predicate struct {
	match    matcher
	negation negation
	// flag predicates take no operands and negate plainly.
	flag func(p world.Player) bool
}

var predicateTable = map[string]predicate{
	"message":          {match: matchMessage, negation: negateAll},
	"name":             {match: matchName, negation: negateAll},
	"has_item":         {match: matchHasItem, negation: negateFirst},
	"container_has":    {match: matchContainerHas, negation: negateFirst},
	"hand_item":        {match: matchHandItem, negation: negateAll},
	"offhand_item":     {match: matchOffHandItem, negation: negateAll},
	"hand_type":        {match: matchHandType, negation: negateAll},
	"item_equals":      {match: matchItemEquals, negation: negateFirst},
	"looking_at":       {match: matchLookingAt, negation: negateFirst},
	"looking_at_type":  {match: matchLookingAtType, negation: negateFirst},
	"near":             {match: matchNear, negation: negateFirst},
	"standing_on":      {match: matchStandingOn, negation: negateAll},
	"standing_on_type": {match: matchStandingOnType, negation: negateAll},
	"flying":           {flag: world.Player.IsFlying},
	"sneaking":         {flag: world.Player.IsSneaking},
	"sprinting":        {flag: world.Player.IsSprinting},
}

// Evaluator decides conditions. It only reads state.
type Evaluator struct {
	expander Expander
}

type evalContext struct {
	actor  world.Entity
	b      Binding
	radius float64
	tok    opcode.Token
}

// Eval evaluates an if/ifnot token against actor. actor may be nil when
// the target could not be resolved; predicates that need it then miss.
// A miss evaluates to false.
func (e *Evaluator) Eval(tok opcode.Token, actor world.Entity, b Binding) (bool, error) {
	name, operands := tok.Predicate()
	negated := tok.Is(opcode.IfNot)
	if strings.HasPrefix(name, "!") {
		negated = !negated
		name = strings.TrimSpace(name[1:])
	}
	if strings.HasSuffix(name, negatedSuffix) {
		negated = !negated
		name = strings.TrimSuffix(name, negatedSuffix)
	}
	if name == "" {
		return false, nil
	}

	pred, ok := predicateTable[name]
	if !ok {
		return false, NewResolutionMiss(tok.Raw, "unknown predicate %q", name)
	}

	if pred.flag != nil {
		p, ok := actor.(world.Player)
		if !ok {
			return false, NewResolutionMiss(tok.Raw, "%s needs a player", name)
		}
		return pred.flag(p) != negated, nil
	}

	c := &evalContext{actor: actor, b: b, tok: tok, radius: TargetBlockDistance}
	if tok.HasType {
		r, err := opcode.ParseFloat("type", e.expander.Expand(tok.Type, actor, b.Event, b.World))
		if err != nil {
			return false, NewParseMiss(tok.Raw, err)
		}
		c.radius = r
	}

	for i, op := range operands {
		operands[i] = e.expander.Expand(op, actor, b.Event, b.World)
	}
	return combine(c, pred, operands, negated)
}

func combine(c *evalContext, pred predicate, operands []string, negated bool) (bool, error) {
	if !negated {
		for _, op := range operands {
			ok, err := pred.match(c, op)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	switch pred.negation {
	case negateFirst:
		for _, op := range operands {
			ok, err := pred.match(c, op)
			if err != nil {
				return false, err
			}
			if !ok {
				return true, nil
			}
		}
		return false, nil
	default:
		for _, op := range operands {
			ok, err := pred.match(c, op)
			if err != nil {
				return false, err
			}
			if ok {
				return false, nil
			}
		}
		return true, nil
	}
}

// foldEqual compares text with Unicode case folding.
func foldEqual(a, b string) bool {
	return cases.Fold().String(strings.TrimSpace(a)) == cases.Fold().String(strings.TrimSpace(b))
}

func (c *evalContext) player() (world.Player, error) {
	p, ok := c.actor.(world.Player)
	if !ok {
		return nil, NewResolutionMiss(c.tok.Raw, "predicate needs a player")
	}
	return p, nil
}

func (c *evalContext) location(op string) (world.Location, error) {
	loc, err := opcode.ParseLocation("eq", op)
	if err != nil {
		return world.Location{}, NewParseMiss(c.tok.Raw, err)
	}
	return loc, nil
}

func (c *evalContext) item(op string) (world.ItemStack, error) {
	it, err := opcode.DecodeItem(op)
	if err != nil {
		return world.ItemStack{}, NewParseMiss(c.tok.Raw, err)
	}
	return it, nil
}

func matchMessage(c *evalContext, op string) (bool, error) {
	if c.b.Event == nil {
		return false, nil
	}
	return foldEqual(c.b.Event.Message, op), nil
}

func matchName(c *evalContext, op string) (bool, error) {
	if c.actor == nil {
		return false, NewResolutionMiss(c.tok.Raw, "no entity")
	}
	return foldEqual(c.actor.Name(), op), nil
}

// possesses applies the item-possession rule: a single item must be
// present by meta equality, a larger stack by material count.
func possesses(inv *world.Inventory, want world.ItemStack) bool {
	if want.Amount <= 1 {
		return inv.ContainsSimilar(want)
	}
	return inv.CountMaterial(want.Material) >= want.Amount
}

func matchHasItem(c *evalContext, op string) (bool, error) {
	p, err := c.player()
	if err != nil {
		return false, err
	}
	want, err := c.item(op)
	if err != nil {
		return false, err
	}
	return possesses(p.Inventory(), want), nil
}

func matchContainerHas(c *evalContext, op string) (bool, error) {
	p, err := c.player()
	if err != nil {
		return false, err
	}
	inv := p.OpenContainer()
	if inv == nil {
		return false, nil
	}
	want, err := c.item(op)
	if err != nil {
		return false, err
	}
	return possesses(inv, want), nil
}

// holds matches a held stack: exact meta for one item, material and at
// least the amount otherwise.
func holds(held, want world.ItemStack) bool {
	if held.IsEmpty() {
		return false
	}
	if want.Amount <= 1 {
		return held.SimilarTo(want)
	}
	return held.Material == want.Material && held.Amount >= want.Amount
}

func matchHandItem(c *evalContext, op string) (bool, error) {
	p, err := c.player()
	if err != nil {
		return false, err
	}
	want, err := c.item(op)
	if err != nil {
		return false, err
	}
	return holds(p.MainHand(), want), nil
}

func matchOffHandItem(c *evalContext, op string) (bool, error) {
	p, err := c.player()
	if err != nil {
		return false, err
	}
	want, err := c.item(op)
	if err != nil {
		return false, err
	}
	return holds(p.OffHand(), want), nil
}

func matchHandType(c *evalContext, op string) (bool, error) {
	p, err := c.player()
	if err != nil {
		return false, err
	}
	return foldEqual(p.MainHand().Material, op), nil
}

func matchItemEquals(c *evalContext, op string) (bool, error) {
	if c.b.Event == nil || c.b.Event.Item == nil {
		return false, nil
	}
	want, err := c.item(op)
	if err != nil {
		return false, err
	}
	return holds(*c.b.Event.Item, want), nil
}

func (c *evalContext) target() (world.Location, bool, error) {
	p, err := c.player()
	if err != nil {
		return world.Location{}, false, err
	}
	loc, ok := p.TargetBlock(int(c.radius))
	return loc, ok, nil
}

func matchLookingAt(c *evalContext, op string) (bool, error) {
	got, ok, err := c.target()
	if err != nil || !ok {
		return false, err
	}
	want, err := c.location(op)
	if err != nil {
		return false, err
	}
	return got.SameBlock(want), nil
}

func matchLookingAtType(c *evalContext, op string) (bool, error) {
	got, ok, err := c.target()
	if err != nil || !ok {
		return false, err
	}
	if c.b.World == nil {
		return false, nil
	}
	return foldEqual(c.b.World.BlockAt(got), op), nil
}

func matchNear(c *evalContext, op string) (bool, error) {
	if c.actor == nil {
		return false, NewResolutionMiss(c.tok.Raw, "no entity")
	}
	want, err := c.location(op)
	if err != nil {
		return false, err
	}
	return c.actor.Location().Distance(want) <= c.radius, nil
}

func matchStandingOn(c *evalContext, op string) (bool, error) {
	if c.actor == nil {
		return false, NewResolutionMiss(c.tok.Raw, "no entity")
	}
	want, err := c.location(op)
	if err != nil {
		return false, err
	}
	return c.actor.Location().Below().SameBlock(want), nil
}

func matchStandingOnType(c *evalContext, op string) (bool, error) {
	if c.actor == nil {
		return false, NewResolutionMiss(c.tok.Raw, "no entity")
	}
	if c.b.World == nil {
		return false, nil
	}
	return foldEqual(c.b.World.BlockAt(c.actor.Location().Below()), op), nil
}
