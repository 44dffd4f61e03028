package vm

import (
	"context"
	"fmt"
	"strings"

	"github.com/zurustar/blockscript/pkg/opcode"
	"github.com/zurustar/blockscript/pkg/world"
)

// DefaultInventoryRows is used when openInventory has no row count.
const DefaultInventoryRows = 3

// call carries one instruction's context into its handler.
type call struct {
	tok    opcode.Token
	b      Binding
	target world.Entity
}

// expand resolves placeholders against the instruction's target.
func (i *Interpreter) expand(c *call, s string) string {
	return i.expander.Expand(s, c.target, c.b.Event, c.b.World)
}

type handlerFunc func(i *Interpreter, ctx context.Context, c *call) error

type handler struct {
	name opcode.Cmd
	fn   handlerFunc
	// untargeted handlers run even when the token's target is unresolved;
	// the target then only feeds placeholders.
	untargeted bool
}

// handlers is matched by name prefix in order.
var handlers = []handler{
	{name: opcode.Message, fn: handleMessage},
	{name: opcode.Broadcast, fn: handleBroadcast, untargeted: true},
	{name: opcode.GameMode, fn: handleGameMode},
	{name: opcode.SetHealth, fn: handleSetHealth},
	{name: opcode.SetFood, fn: handleSetFood},
	{name: opcode.Teleport, fn: handleTeleport},
	{name: opcode.SetBlock, fn: handleSetBlock, untargeted: true},
	{name: opcode.OpenInventory, fn: handleOpenInventory},
	{name: opcode.CloseInventory, fn: handleCloseInventory},
	{name: opcode.ClearInventory, fn: handleClearInventory},
	{name: opcode.GiveItems, fn: handleGiveItems},
	{name: opcode.DeleteItems, fn: handleDeleteItems},
	{name: opcode.GiveRandomItem, fn: handleGiveRandomItem},
	{name: opcode.CancelEvent, fn: handleCancelEvent, untargeted: true},
}

func lookupHandler(tok opcode.Token) (handler, bool) {
	for _, h := range handlers {
		if tok.HasPrefix(h.name) {
			return h, true
		}
	}
	return handler{}, false
}

func asPlayer(c *call) (world.Player, error) {
	p, ok := c.target.(world.Player)
	if !ok {
		return nil, NewResolutionMiss(c.tok.Raw, "target %s is not a player", c.target.ID())
	}
	return p, nil
}

func handleMessage(i *Interpreter, _ context.Context, c *call) error {
	p, err := asPlayer(c)
	if err != nil {
		return err
	}
	p.SendMessage(i.expand(c, c.tok.Message))
	return nil
}

func handleBroadcast(i *Interpreter, _ context.Context, c *call) error {
	c.b.World.Broadcast(i.expand(c, c.tok.Message))
	return nil
}

func handleGameMode(i *Interpreter, _ context.Context, c *call) error {
	p, err := asPlayer(c)
	if err != nil {
		return err
	}
	mode, ok := world.ParseGameMode(i.expand(c, c.tok.Eq))
	if !ok {
		return NewParseMiss(c.tok.Raw, fmt.Errorf("unknown game mode %q", c.tok.Eq))
	}
	p.SetGameMode(mode)
	return nil
}

func handleSetHealth(i *Interpreter, _ context.Context, c *call) error {
	l, ok := c.target.(world.Living)
	if !ok {
		return NewResolutionMiss(c.tok.Raw, "target %s is not living", c.target.ID())
	}
	hp, err := opcode.ParseFloat("eq", i.expand(c, c.tok.Eq))
	if err != nil {
		return NewParseMiss(c.tok.Raw, err)
	}
	l.SetHealth(max(0, min(hp, l.MaxHealth())))
	return nil
}

func handleSetFood(i *Interpreter, _ context.Context, c *call) error {
	p, err := asPlayer(c)
	if err != nil {
		return err
	}
	food, err := opcode.ParseInt("eq", i.expand(c, c.tok.Eq))
	if err != nil {
		return NewParseMiss(c.tok.Raw, err)
	}
	p.SetFood(food)
	return nil
}

func handleTeleport(i *Interpreter, _ context.Context, c *call) error {
	p, err := asPlayer(c)
	if err != nil {
		return err
	}
	loc, err := opcode.ParseLocation("eq", i.expand(c, c.tok.Eq))
	if err != nil {
		return NewParseMiss(c.tok.Raw, err)
	}
	p.Teleport(loc)
	return nil
}

func handleSetBlock(i *Interpreter, _ context.Context, c *call) error {
	loc, err := opcode.ParseLocation("eq", i.expand(c, c.tok.Eq))
	if err != nil {
		return NewParseMiss(c.tok.Raw, err)
	}
	material := strings.TrimSpace(c.tok.Type)
	if material == "" {
		return NewParseMiss(c.tok.Raw, fmt.Errorf("missing block material"))
	}
	c.b.World.SetBlock(loc.Block(), material)
	return nil
}

func handleOpenInventory(i *Interpreter, _ context.Context, c *call) error {
	p, err := asPlayer(c)
	if err != nil {
		return err
	}
	rows := DefaultInventoryRows
	if eq := strings.TrimSpace(c.tok.Eq); eq != "" {
		rows, err = opcode.ParseInt("eq", i.expand(c, eq))
		if err != nil {
			return NewParseMiss(c.tok.Raw, err)
		}
	}
	if rows < 1 || rows > 6 {
		return NewParseMiss(c.tok.Raw, fmt.Errorf("rows %d out of range", rows))
	}
	p.OpenInventory(world.NewInventory(rows*9, i.expand(c, c.tok.Message)))
	return nil
}

func handleCloseInventory(_ *Interpreter, _ context.Context, c *call) error {
	p, err := asPlayer(c)
	if err != nil {
		return err
	}
	p.CloseInventory()
	return nil
}

func handleClearInventory(_ *Interpreter, _ context.Context, c *call) error {
	p, err := asPlayer(c)
	if err != nil {
		return err
	}
	p.Inventory().Clear()
	return nil
}

// items decodes the token's item list. Undecodable operands are reported
// and skipped.
func (i *Interpreter) items(ctx context.Context, c *call) []world.ItemStack {
	var out []world.ItemStack
	for _, op := range c.tok.Operands() {
		it, err := opcode.DecodeItem(i.expand(c, op))
		if err != nil {
			i.miss(ctx, NewParseMiss(c.tok.Raw, err))
			continue
		}
		out = append(out, it)
	}
	return out
}

func handleGiveItems(i *Interpreter, ctx context.Context, c *call) error {
	p, err := asPlayer(c)
	if err != nil {
		return err
	}
	for _, it := range i.items(ctx, c) {
		p.Inventory().Add(it)
	}
	return nil
}

func handleDeleteItems(i *Interpreter, ctx context.Context, c *call) error {
	p, err := asPlayer(c)
	if err != nil {
		return err
	}
	for _, it := range i.items(ctx, c) {
		p.Inventory().Remove(it)
	}
	return nil
}

func handleGiveRandomItem(i *Interpreter, ctx context.Context, c *call) error {
	p, err := asPlayer(c)
	if err != nil {
		return err
	}
	items := i.items(ctx, c)
	if len(items) == 0 {
		return NewParseMiss(c.tok.Raw, fmt.Errorf("empty item list"))
	}
	p.Inventory().Add(items[i.rng.IntN(len(items))])
	return nil
}

func handleCancelEvent(_ *Interpreter, _ context.Context, c *call) error {
	if c.b.Event != nil {
		c.b.Event.Cancel()
	}
	return nil
}
