package opcode

import (
	"strconv"
	"strings"

	"github.com/zurustar/blockscript/pkg/world"
)

// Item encoding: item[-<material>*<name>-][=<amount>=][+<lore>+]
const (
	itemPrefix   = "item"
	itemHeadOpen = "[-"
	itemHeadEnd  = "-]"
	itemNameSep  = "*"
	amountOpen   = "[="
	amountClose  = "=]"
	loreOpen     = "[+"
	loreClose    = "+]"
	loreSep      = ";"
)

// EncodeItem renders s in the item operand format. The amount region is
// only written for amounts other than one, the lore region only when the
// stack has lore.
func EncodeItem(s world.ItemStack) string {
	var sb strings.Builder
	sb.WriteString(itemPrefix + itemHeadOpen + s.Material + itemNameSep + s.Name + itemHeadEnd)
	if s.Amount != 1 {
		sb.WriteString(amountOpen + strconv.Itoa(s.Amount) + amountClose)
	}
	if len(s.Lore) > 0 {
		sb.WriteString(loreOpen + strings.Join(s.Lore, loreSep) + loreClose)
	}
	return sb.String()
}

// IsItem reports whether operand uses the item encoding.
func IsItem(operand string) bool {
	return strings.HasPrefix(operand, itemPrefix+itemHeadOpen)
}

// DecodeItem parses an item operand. Missing amount means one.
func DecodeItem(operand string) (world.ItemStack, error) {
	if !IsItem(operand) {
		return world.ItemStack{}, &ParseError{Region: "item", Input: operand, Reason: "missing item prefix"}
	}
	head, _, rest := cut(operand[len(itemPrefix):], itemHeadOpen, itemHeadEnd)
	material, name, _ := strings.Cut(head, itemNameSep)
	if material == "" {
		return world.ItemStack{}, &ParseError{Region: "item", Input: operand, Reason: "empty material"}
	}
	s := world.ItemStack{Material: material, Name: name, Amount: 1}

	if amount, ok, _ := cut(rest, amountOpen, amountClose); ok {
		n, err := ParseInt("item amount", amount)
		if err != nil {
			return world.ItemStack{}, err
		}
		s.Amount = n
	}
	if lore, ok, _ := cut(rest, loreOpen, loreClose); ok && lore != "" {
		s.Lore = strings.Split(lore, loreSep)
	}
	return s, nil
}

// EncodeItems joins items into one operand set.
func EncodeItems(items []world.ItemStack) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, EncodeItem(it))
	}
	return strings.Join(parts, OperandSep)
}

// Placeholder syntax: apple[<name>]~
const (
	placeholderOpen  = "apple["
	placeholderClose = "]~"
)

// Placeholder renders the deferred lookup token for name.
func Placeholder(name string) string {
	return placeholderOpen + name + placeholderClose
}

// IsPlaceholder reports whether s is exactly one placeholder token.
func IsPlaceholder(s string) bool {
	return strings.HasPrefix(s, placeholderOpen) && strings.HasSuffix(s, placeholderClose) &&
		len(s) > len(placeholderOpen)+len(placeholderClose)
}

// ContainsPlaceholder reports whether s mentions any placeholder.
func ContainsPlaceholder(s string) bool {
	return strings.Contains(s, placeholderOpen)
}
