package vm

import (
	"github.com/zurustar/blockscript/pkg/opcode"
)

// Node is one element of a parsed line.
type Node interface {
	node()
}

// Block is a sequence of nodes executed in order.
type Block []Node

// Instruction is a single non-conditional token.
type Instruction struct {
	Token opcode.Token
}

// If is a conditional with its scope bodies. A nil Else means the line had
// no else branch.
type If struct {
	Cond opcode.Token
	Body Block
	Else Block
}

func (*Instruction) node() {}
func (*If) node()          {}

// ParseLine splits a serialized line, returning its head token and the
// parsed body after it. Structural problems are returned, not fatal.
func ParseLine(line string) (opcode.Token, Block, []*RuntimeError) {
	raw := opcode.SplitLine(line)
	if len(raw) == 0 {
		return opcode.Token{}, nil, nil
	}
	toks := make([]opcode.Token, len(raw))
	for i, r := range raw {
		toks[i] = opcode.Parse(r)
	}
	body, misses := Parse(toks[1:])
	return toks[0], body, misses
}

// ScopeEnd returns the index of the "}" closing the "{" at open, counting
// depth. An unmatched scope runs to len(toks).
func ScopeEnd(toks []opcode.Token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].Name {
		case opcode.OpenScope:
			depth++
		case opcode.CloseScope:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(toks)
}

// ExtractScope returns the tokens strictly inside the scope opened at open
// and the index just past its closing brace.
func ExtractScope(toks []opcode.Token, open int) (body []opcode.Token, next int) {
	end := ScopeEnd(toks, open)
	if end >= len(toks) {
		return toks[open+1:], len(toks)
	}
	return toks[open+1 : end], end + 1
}

// Parse builds the block for toks.
func Parse(toks []opcode.Token) (Block, []*RuntimeError) {
	p := &parser{}
	return p.block(toks), p.misses
}

type parser struct {
	misses []*RuntimeError
}

func (p *parser) block(toks []opcode.Token) Block {
	var out Block
	for i := 0; i < len(toks); {
		t := toks[i]
		switch {
		case t.Is(opcode.If), t.Is(opcode.IfNot):
			node := &If{Cond: t}
			node.Body, i = p.branch(toks, i+1, t)
			if i < len(toks) && toks[i].Is(opcode.Else) {
				node.Else, i = p.branch(toks, i+1, toks[i])
				if node.Else == nil {
					node.Else = Block{}
				}
			}
			out = append(out, node)

		case t.Is(opcode.Else):
			p.misses = append(p.misses, NewStructuralMiss(t.Raw, "else without preceding if"))
			_, i = p.branch(toks, i+1, t)

		case t.Is(opcode.OpenScope), t.Is(opcode.CloseScope):
			p.misses = append(p.misses, NewStructuralMiss(t.Raw, "stray scope delimiter"))
			i++

		default:
			out = append(out, &Instruction{Token: t})
			i++
		}
	}
	return out
}

// branch parses the body guarded by owner starting at i. A body that does
// not open with "{" extends to the end of the line.
func (p *parser) branch(toks []opcode.Token, i int, owner opcode.Token) (Block, int) {
	if i < len(toks) && toks[i].Is(opcode.OpenScope) {
		if ScopeEnd(toks, i) == len(toks) {
			p.misses = append(p.misses, NewStructuralMiss(owner.Raw, "unclosed scope runs to end of line"))
		}
		body, next := ExtractScope(toks, i)
		return p.block(body), next
	}
	return p.block(toks[i:]), len(toks)
}
