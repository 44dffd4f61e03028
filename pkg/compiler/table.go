package compiler

import (
	"maps"
	"strings"
	"unicode"

	"github.com/zurustar/blockscript/pkg/opcode"
)

// OperandKind says how a condition reads its container.
type OperandKind int

const (
	// OperandNone takes no operands.
	OperandNone OperandKind = iota
	// OperandItems encodes every slot as an item.
	OperandItems
	// OperandText uses every slot's display name.
	OperandText
	// OperandMaterial uses every slot's material.
	OperandMaterial
	// OperandCoords reads every slot's display name as coordinates.
	OperandCoords
)

// PredicateSpec describes one condition label.
type PredicateSpec struct {
	Name     string
	Operands OperandKind
	// Radius reads ExtraSlot as the [r] type region and excludes it from
	// the operand scan.
	Radius bool
}

// Table is the label lookup data for a Resolver. Keys are matched after
// lower-casing and trimming the label.
type Table struct {
	Events     map[string]opcode.Cmd
	Actions    map[string]opcode.Cmd
	Conditions map[string]PredicateSpec

	// Placeholders maps a placeholder item's display name (case-folded,
	// colour codes stripped) to a placeholder name.
	Placeholders map[string]string

	// PlaceholderMaterial is the item material read as a placeholder.
	PlaceholderMaterial string
}

var eventOpcodes = []opcode.Cmd{
	opcode.EventJoin, opcode.EventQuit, opcode.EventChat,
	opcode.EventBlockBreak, opcode.EventBlockPlace,
	opcode.EventEntityDeath, opcode.EventPlayerDeath,
	opcode.EventEntityDamage, opcode.EventDamageByEntity,
	opcode.EventRightClick, opcode.EventLeftClick,
	opcode.EventSneak, opcode.EventSprint, opcode.EventFlyToggle,
	opcode.EventMove, opcode.EventJump,
	opcode.EventInventoryClick, opcode.EventInventoryOpen, opcode.EventInventoryClose,
	opcode.EventHeldSlotChange, opcode.EventRespawn,
	opcode.EventDropItem, opcode.EventPickupItem,
}

var actionOpcodes = []opcode.Cmd{
	opcode.Message, opcode.Broadcast, opcode.GameMode,
	opcode.SetHealth, opcode.SetFood, opcode.Teleport, opcode.SetBlock,
	opcode.OpenInventory, opcode.CloseInventory, opcode.ClearInventory,
	opcode.GiveItems, opcode.DeleteItems, opcode.GiveRandomItem,
	opcode.Call, opcode.Delay, opcode.CancelEvent,
}

var predicates = []PredicateSpec{
	{Name: "message", Operands: OperandText},
	{Name: "name", Operands: OperandText},
	{Name: "has_item", Operands: OperandItems},
	{Name: "container_has", Operands: OperandItems},
	{Name: "hand_item", Operands: OperandItems},
	{Name: "offhand_item", Operands: OperandItems},
	{Name: "hand_type", Operands: OperandMaterial},
	{Name: "item_equals", Operands: OperandItems},
	{Name: "looking_at", Operands: OperandCoords, Radius: true},
	{Name: "looking_at_type", Operands: OperandMaterial, Radius: true},
	{Name: "near", Operands: OperandCoords, Radius: true},
	{Name: "standing_on", Operands: OperandCoords},
	{Name: "standing_on_type", Operands: OperandMaterial},
	{Name: "flying"},
	{Name: "sneaking"},
	{Name: "sprinting"},
}

// PlaceholderNames lists every placeholder the runtime expands.
var PlaceholderNames = []string{
	"health", "max_health", "food", "saturation", "exp", "armor", "air",
	"slot", "ping", "location", "inventory_title", "target_block",
	"damage", "clicked_slot", "new_slot", "old_slot", "message",
	"block_location", "online", "world_players", "world_entities",
}

// DefaultTable returns a fresh table. Each opcode is reachable by its own
// name and by its kebab-case spelling ("blockBreak", "block-break");
// predicates also by their dashed spelling ("has-item").
func DefaultTable() Table {
	t := Table{
		Events:              make(map[string]opcode.Cmd),
		Actions:             make(map[string]opcode.Cmd),
		Conditions:          make(map[string]PredicateSpec),
		Placeholders:        make(map[string]string),
		PlaceholderMaterial: "golden_apple",
	}
	for _, c := range eventOpcodes {
		t.Events[strings.ToLower(string(c))] = c
		t.Events[kebab(string(c))] = c
	}
	for _, c := range actionOpcodes {
		t.Actions[strings.ToLower(string(c))] = c
		t.Actions[kebab(string(c))] = c
	}
	for _, p := range predicates {
		t.Conditions[p.Name] = p
		t.Conditions[strings.ReplaceAll(p.Name, "_", "-")] = p
	}
	for _, name := range PlaceholderNames {
		t.Placeholders[name] = name
		t.Placeholders[strings.ReplaceAll(name, "_", " ")] = name
	}
	return t
}

// clone deep-copies the maps so a Resolver never shares them with callers.
func (t Table) clone() Table {
	t.Events = maps.Clone(t.Events)
	t.Actions = maps.Clone(t.Actions)
	t.Conditions = maps.Clone(t.Conditions)
	t.Placeholders = maps.Clone(t.Placeholders)
	return t
}

// kebab converts "blockBreak" to "block-break".
func kebab(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// normalizeLabel lowercases a sign label. Labels feed the target region
// verbatim, so "&" is dropped.
func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, opcode.LineSeparator, "")))
}
