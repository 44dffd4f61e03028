package vm

import (
	"strconv"
	"strings"

	"github.com/zurustar/blockscript/pkg/opcode"
	"github.com/zurustar/blockscript/pkg/world"
)

// TargetBlockDistance bounds the line-of-sight search for target_block and
// the default radius of looking_at.
const TargetBlockDistance = 5

// placeholderOrder is the fixed replacement order.
var placeholderOrder = []string{
	"health", "max_health", "food", "saturation", "exp", "armor", "air",
	"slot", "ping", "location", "inventory_title", "target_block",
	"damage", "clicked_slot", "new_slot", "old_slot", "message",
	"block_location", "online", "world_players", "world_entities",
}

// Expander replaces placeholders with live values.
type Expander struct{}

// Expand substitutes every known placeholder in text. Values are read once
// per call; a placeholder whose value is unavailable for this actor or
// event is left in place.
func (Expander) Expand(text string, actor world.Entity, ev *world.Event, w world.World) string {
	if !opcode.ContainsPlaceholder(text) {
		return text
	}
	values := snapshot(actor, ev, w)
	for _, name := range placeholderOrder {
		v, ok := values[name]
		if !ok {
			continue
		}
		text = strings.ReplaceAll(text, opcode.Placeholder(name), v)
	}
	return text
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func snapshot(actor world.Entity, ev *world.Event, w world.World) map[string]string {
	v := make(map[string]string, len(placeholderOrder))

	if actor != nil {
		v["location"] = actor.Location().Format()
	}
	if l, ok := actor.(world.Living); ok {
		v["health"] = fmtFloat(l.Health())
		v["max_health"] = fmtFloat(l.MaxHealth())
		v["armor"] = fmtFloat(l.Armor())
		v["air"] = strconv.Itoa(l.Air())
		v["damage"] = fmtFloat(l.LastDamage())
	}
	if p, ok := actor.(world.Player); ok {
		v["food"] = strconv.Itoa(p.Food())
		v["saturation"] = fmtFloat(p.Saturation())
		v["exp"] = fmtFloat(p.Exp())
		v["slot"] = strconv.Itoa(p.HeldSlot())
		v["ping"] = strconv.Itoa(p.Ping())
		if inv := p.OpenContainer(); inv != nil {
			v["inventory_title"] = inv.Title
		}
		if loc, ok := p.TargetBlock(TargetBlockDistance); ok {
			v["target_block"] = loc.Format()
		}
	}

	if ev != nil {
		if opcode.IsCombatEvent(opcode.Cmd(ev.Kind)) {
			v["damage"] = fmtFloat(ev.Damage)
		}
		v["clicked_slot"] = strconv.Itoa(ev.ClickedSlot)
		v["new_slot"] = strconv.Itoa(ev.NewSlot)
		v["old_slot"] = strconv.Itoa(ev.OldSlot)
		v["message"] = ev.Message
		if ev.Block != nil {
			v["block_location"] = ev.Block.Format()
		}
	}

	if w != nil {
		v["online"] = strconv.Itoa(w.OnlinePlayers())
		v["world_players"] = strconv.Itoa(len(w.Players()))
		v["world_entities"] = strconv.Itoa(w.EntityCount())
	}
	return v
}
