package compiler

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/zurustar/blockscript/pkg/opcode"
	"github.com/zurustar/blockscript/pkg/world"
)

// colourCode matches section-sign formatting codes in display names.
var colourCode = regexp.MustCompile(`(?i)§[0-9a-fk-orx]`)

const (
	negateModifier = "not"
	negatePrefix   = "!"
	asyncModifier  = "async"
	defaultRows    = 3
	maxRows        = 6
)

// Resolver turns one marker into one token. It holds a private copy of its
// Table and is safe for concurrent use.
type Resolver struct {
	table Table
}

// NewResolver creates a resolver over a copy of t.
func NewResolver(t Table) *Resolver {
	return &Resolver{table: t.clone()}
}

// Resolve returns the token for m. A marker that yields nothing returns a
// *MissError.
func (r *Resolver) Resolve(m Marker) (string, error) {
	switch m.Family {
	case FamilyEvent:
		cmd, ok := r.table.Events[normalizeLabel(m.Label.Primary)]
		if !ok {
			return "", unrecognized(m)
		}
		return string(cmd), nil
	case FamilyAction:
		return r.action(m)
	case FamilyCondition:
		return r.condition(m)
	case FamilyElse:
		return string(opcode.Else), nil
	case FamilyOpenScope:
		return string(opcode.OpenScope), nil
	case FamilyCloseScope:
		return string(opcode.CloseScope), nil
	case FamilyFunction:
		name := authoredText(m.Label.Secondary)
		if name == "" {
			return "", parseMiss(m, fmt.Errorf("function name: %w", ErrNoValue))
		}
		return opcode.NewToken(opcode.Function).Eq(name).String(), nil
	}
	return "", unrecognized(m)
}

func (r *Resolver) action(m Marker) (string, error) {
	cmd, ok := r.table.Actions[normalizeLabel(m.Label.Primary)]
	if !ok {
		return "", unrecognized(m)
	}
	tok := opcode.NewToken(cmd).Target(normalizeLabel(m.Label.Target))

	switch cmd {
	case opcode.Message, opcode.Broadcast:
		var words []string
		for _, it := range r.items(m, -1) {
			if v, err := r.value(it); err == nil {
				words = append(words, v)
			}
		}
		if len(words) == 0 {
			return "", parseMiss(m, fmt.Errorf("message text: %w", ErrNoValue))
		}
		tok.Message(strings.Join(words, " "))

	case opcode.GameMode:
		mode, ok := world.ParseGameMode(m.Label.Secondary)
		if !ok {
			return "", parseMiss(m, fmt.Errorf("unknown game mode %q", m.Label.Secondary))
		}
		tok.Eq(string(mode))

	case opcode.SetHealth:
		v, err := r.number(m, ValueSlot, func(s string) error {
			_, err := opcode.ParseFloat("eq", s)
			return err
		})
		if err != nil {
			return "", parseMiss(m, err)
		}
		tok.Eq(v)

	case opcode.SetFood, opcode.Delay:
		v, err := r.number(m, ValueSlot, func(s string) error {
			_, err := opcode.ParseInt("eq", s)
			return err
		})
		if err != nil {
			return "", parseMiss(m, err)
		}
		tok.Eq(v)

	case opcode.Teleport:
		v, err := r.number(m, ValueSlot, func(s string) error {
			_, err := opcode.ParseLocation("eq", s)
			return err
		})
		if err != nil {
			return "", parseMiss(m, err)
		}
		tok.Eq(v)

	case opcode.SetBlock:
		v, err := r.number(m, ValueSlot, func(s string) error {
			_, err := opcode.ParseLocation("eq", s)
			return err
		})
		if err != nil {
			return "", parseMiss(m, err)
		}
		material := m.slot(ExtraSlot).Material
		if material == "" {
			return "", parseMiss(m, fmt.Errorf("block material: %w", ErrNoValue))
		}
		tok.Eq(v).Type(material)

	case opcode.OpenInventory:
		rows := strconv.Itoa(defaultRows)
		if it := m.slot(ValueSlot); !it.IsEmpty() {
			v, err := r.value(it)
			if err != nil {
				return "", parseMiss(m, err)
			}
			n, err := opcode.ParseInt("eq", v)
			if err != nil {
				return "", parseMiss(m, err)
			}
			if n < 1 || n > maxRows {
				return "", parseMiss(m, fmt.Errorf("rows %d out of range 1-%d", n, maxRows))
			}
			rows = strconv.Itoa(n)
		}
		tok.Eq(rows)
		if title := authoredText(m.Label.Secondary); title != "" {
			tok.Message(title)
		}

	case opcode.GiveItems, opcode.DeleteItems, opcode.GiveRandomItem:
		list := r.itemList(m, -1)
		if len(list) == 0 {
			return "", parseMiss(m, fmt.Errorf("item list: %w", ErrNoValue))
		}
		tok.Eq(strings.Join(list, opcode.OperandSep))

	case opcode.Call:
		name := authoredText(m.slot(ValueSlot).Name)
		if name == "" {
			return "", parseMiss(m, fmt.Errorf("program name: %w", ErrNoValue))
		}
		mode := opcode.CallSync
		if normalizeLabel(m.Label.Secondary) == asyncModifier {
			mode = opcode.CallAsync
		}
		tok.Type(mode).Eq(name)

	case opcode.CloseInventory, opcode.ClearInventory, opcode.CancelEvent:
	}
	return tok.String(), nil
}

func (r *Resolver) condition(m Marker) (string, error) {
	spec, ok := r.table.Conditions[normalizeLabel(m.Label.Primary)]
	if !ok {
		return "", unrecognized(m)
	}
	cmd := opcode.If
	if normalizeLabel(m.Label.Secondary) == negateModifier {
		cmd = opcode.IfNot
	}
	tok := opcode.NewToken(cmd).Target(normalizeLabel(m.Label.Target))

	skip := -1
	if spec.Radius {
		skip = ExtraSlot
		if it := m.slot(ExtraSlot); !it.IsEmpty() {
			radius, err := r.radius(it)
			if err != nil {
				return "", parseMiss(m, err)
			}
			tok.Type(radius)
		}
	}

	pred := spec.Name
	if m.Negate {
		pred = negatePrefix + pred
	}

	var ops []string
	switch spec.Operands {
	case OperandNone:
		tok.Eq(pred)
		return tok.String(), nil
	case OperandItems:
		ops = r.itemList(m, skip)
	case OperandText:
		for _, it := range r.items(m, skip) {
			if v, err := r.value(it); err == nil {
				ops = append(ops, v)
			}
		}
	case OperandMaterial:
		for _, it := range r.items(m, skip) {
			ops = append(ops, it.Material)
		}
	case OperandCoords:
		for _, it := range r.items(m, skip) {
			v, err := r.value(it)
			if err != nil {
				continue
			}
			if !opcode.IsPlaceholder(v) {
				if _, err := opcode.ParseLocation("eq", v); err != nil {
					continue
				}
				// "|" separates operands, so coordinates travel comma-separated.
				v = strings.ReplaceAll(v, opcode.OperandSep, ",")
			}
			ops = append(ops, v)
		}
	}
	tok.Eq(pred + "=" + strings.Join(ops, opcode.OperandSep))
	return tok.String(), nil
}

// items returns the non-empty container slots in index order, skipping
// slot skip.
func (r *Resolver) items(m Marker, skip int) []world.ItemStack {
	if m.Container == nil {
		return nil
	}
	var out []world.ItemStack
	for i := 0; i < m.Container.Size(); i++ {
		if i == skip {
			continue
		}
		if it := m.Container.Slot(i); !it.IsEmpty() {
			out = append(out, it)
		}
	}
	return out
}

// itemList encodes every slot. Placeholder items become placeholders;
// unknown placeholder names drop the slot.
func (r *Resolver) itemList(m Marker, skip int) []string {
	var out []string
	for _, it := range r.items(m, skip) {
		if r.isPlaceholderItem(it) {
			if p, ok := r.placeholder(it); ok {
				out = append(out, p)
			}
			continue
		}
		out = append(out, opcode.EncodeItem(withoutSeparators(it)))
	}
	return out
}

// value reads a slot as text: a placeholder or the display name.
func (r *Resolver) value(it world.ItemStack) (string, error) {
	if it.IsEmpty() {
		return "", ErrNoValue
	}
	if r.isPlaceholderItem(it) {
		p, ok := r.placeholder(it)
		if !ok {
			return "", fmt.Errorf("unknown placeholder %q", it.Name)
		}
		return p, nil
	}
	name := authoredText(it.Name)
	if name == "" {
		return "", ErrNoValue
	}
	return name, nil
}

// authoredText cleans display text typed by a builder. Formatting codes are
// dropped and "&" becomes a word break, since it would split the token once
// the line is read back.
func authoredText(s string) string {
	s = colourCode.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(strings.ReplaceAll(s, opcode.LineSeparator, " ")), " ")
}

// withoutSeparators removes "&" from an item's name and lore. Formatting
// codes stay: they are part of the item's identity.
func withoutSeparators(it world.ItemStack) world.ItemStack {
	it.Name = strings.ReplaceAll(it.Name, opcode.LineSeparator, "")
	if len(it.Lore) > 0 {
		lore := make([]string, len(it.Lore))
		for i, l := range it.Lore {
			lore[i] = strings.ReplaceAll(l, opcode.LineSeparator, "")
		}
		it.Lore = lore
	}
	return it
}

// number reads slot i as a placeholder or a literal accepted by check.
// An unnamed literal item falls back to its stack amount.
func (r *Resolver) number(m Marker, i int, check func(string) error) (string, error) {
	it := m.slot(i)
	v, err := r.value(it)
	if errors.Is(err, ErrNoValue) && !it.IsEmpty() {
		v, err = strconv.Itoa(it.Amount), nil
	}
	if err != nil {
		return "", fmt.Errorf("slot %d: %w", i, err)
	}
	if opcode.IsPlaceholder(v) {
		return v, nil
	}
	if err := check(v); err != nil {
		return "", err
	}
	return v, nil
}

func (r *Resolver) radius(it world.ItemStack) (string, error) {
	v, err := r.value(it)
	if errors.Is(err, ErrNoValue) {
		return strconv.Itoa(it.Amount), nil
	}
	if err != nil {
		return "", err
	}
	n, err := opcode.ParseInt("type", v)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(n), nil
}

func (r *Resolver) isPlaceholderItem(it world.ItemStack) bool {
	return it.Material == r.table.PlaceholderMaterial
}

func (r *Resolver) placeholder(it world.ItemStack) (string, bool) {
	key := cases.Fold().String(strings.TrimSpace(colourCode.ReplaceAllString(it.Name, "")))
	name, ok := r.table.Placeholders[key]
	if !ok {
		return "", false
	}
	return opcode.Placeholder(name), true
}
