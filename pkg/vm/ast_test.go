package vm

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/blockscript/pkg/opcode"
)

func tokens(line string) []opcode.Token {
	raw := opcode.SplitLine(line)
	out := make([]opcode.Token, len(raw))
	for i, r := range raw {
		out[i] = opcode.Parse(r)
	}
	return out
}

func names(toks []opcode.Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Raw
	}
	return out
}

func TestScopeExtraction(t *testing.T) {
	// cond{a&b{c}&d}
	toks := tokens("cond&{&a&b&{&c&}&d&}")

	if end := ScopeEnd(toks, 1); end != 8 {
		t.Fatalf("ScopeEnd = %d, want 8", end)
	}
	outer, next := ExtractScope(toks, 1)
	if got := names(outer); !reflect.DeepEqual(got, []string{"a", "b", "{", "c", "}", "d"}) {
		t.Errorf("outer body = %v", got)
	}
	if next != len(toks) {
		t.Errorf("next = %d", next)
	}
	inner, _ := ExtractScope(outer, 2)
	if got := names(inner); !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("inner body = %v", got)
	}

	t.Run("unmatched runs to end", func(t *testing.T) {
		toks := tokens("cond&{&a&{&b")
		if end := ScopeEnd(toks, 1); end != len(toks) {
			t.Errorf("ScopeEnd = %d, want %d", end, len(toks))
		}
		body, next := ExtractScope(toks, 1)
		if got := names(body); !reflect.DeepEqual(got, []string{"a", "{", "b"}) {
			t.Errorf("body = %v", got)
		}
		if next != len(toks) {
			t.Errorf("next = %d", next)
		}
	})
}

func TestParseLine(t *testing.T) {
	t.Run("if else", func(t *testing.T) {
		head, block, misses := ParseLine("chat&if(message=stop)&{&cancelEvent&}&else&{&message~(go)~&}")
		if head.Name != opcode.EventChat || len(misses) != 0 {
			t.Fatalf("head=%v misses=%v", head, misses)
		}
		if len(block) != 1 {
			t.Fatalf("block = %#v", block)
		}
		n, ok := block[0].(*If)
		if !ok {
			t.Fatalf("node is %T", block[0])
		}
		if len(n.Body) != 1 || len(n.Else) != 1 {
			t.Errorf("body=%d else=%d", len(n.Body), len(n.Else))
		}
	})

	t.Run("unscoped condition gates rest of line", func(t *testing.T) {
		_, block, _ := ParseLine("join&message~(a)~&if(flying)&message~(b)~&message~(c)~")
		if len(block) != 2 {
			t.Fatalf("block = %#v", block)
		}
		n := block[1].(*If)
		if len(n.Body) != 2 || n.Else != nil {
			t.Errorf("body=%d else=%v", len(n.Body), n.Else)
		}
	})

	t.Run("else after unscoped condition is orphaned", func(t *testing.T) {
		_, block, misses := ParseLine("chat&if(message=stop)&message~(a)~&else&message~(b)~")
		if len(block) != 1 {
			t.Fatalf("block = %#v", block)
		}
		n := block[0].(*If)
		if len(n.Body) != 1 || n.Else != nil {
			t.Errorf("body=%#v else=%v", n.Body, n.Else)
		}
		if len(misses) != 1 || misses[0].Type != ErrorStructuralMiss {
			t.Errorf("misses = %v", misses)
		}
	})

	t.Run("unscoped else gates rest of line", func(t *testing.T) {
		_, block, _ := ParseLine("join&if(flying)&{&message~(a)~&}&else&message~(b)~&message~(c)~")
		if len(block) != 1 {
			t.Fatalf("block = %#v", block)
		}
		if n := block[0].(*If); len(n.Body) != 1 || len(n.Else) != 2 {
			t.Errorf("body=%d else=%d", len(n.Body), len(n.Else))
		}
	})

	t.Run("else if chain", func(t *testing.T) {
		_, block, _ := ParseLine("join&if(flying)&{&message~(a)~&}&else&if(sneaking)&{&message~(b)~&}&else&{&message~(c)~&}")
		outer := block[0].(*If)
		if len(outer.Else) != 1 {
			t.Fatalf("else = %#v", outer.Else)
		}
		inner, ok := outer.Else[0].(*If)
		if !ok || len(inner.Body) != 1 || len(inner.Else) != 1 {
			t.Errorf("inner = %#v", outer.Else[0])
		}
	})

	t.Run("stray tokens are ignored", func(t *testing.T) {
		_, block, misses := ParseLine("join&}&else&{&message~(x)~&}&message~(y)~")
		if len(block) != 1 || block[0].(*Instruction).Token.Message != "y" {
			t.Errorf("block = %#v", block)
		}
		if len(misses) != 2 {
			t.Errorf("misses = %v", misses)
		}
		for _, m := range misses {
			if m.Type != ErrorStructuralMiss {
				t.Errorf("miss type %s", m.Type)
			}
		}
	})

	t.Run("unclosed scope", func(t *testing.T) {
		_, block, misses := ParseLine("join&if(flying)&{&message~(a)~&message~(b)~")
		if n := block[0].(*If); len(n.Body) != 2 {
			t.Errorf("body = %#v", n.Body)
		}
		if len(misses) != 1 {
			t.Errorf("misses = %v", misses)
		}
	})

	t.Run("empty line", func(t *testing.T) {
		head, block, _ := ParseLine("")
		if head.Name != "" || block != nil {
			t.Errorf("head=%v block=%v", head, block)
		}
	})
}

// serialize renders a block in the braced wire form.
func serialize(b Block) []string {
	var out []string
	for _, n := range b {
		switch n := n.(type) {
		case *Instruction:
			out = append(out, n.Token.Raw)
		case *If:
			out = append(out, n.Cond.Raw, "{")
			out = append(out, serialize(n.Body)...)
			out = append(out, "}")
			if n.Else != nil {
				out = append(out, "else", "{")
				out = append(out, serialize(n.Else)...)
				out = append(out, "}")
			}
		}
	}
	return out
}

// TestProperty_ParseRoundTrip builds well-nested token streams and checks
// that parsing and re-serializing reproduces them.
func TestProperty_ParseRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("serialize(parse(tokens)) == tokens", prop.ForAll(
		func(ops []int) bool {
			var raw []string
			// stack of open scopes; true when the scope is an if body that
			// may take an else
			var open []bool
			for _, op := range ops {
				switch op {
				case 0, 1:
					raw = append(raw, "message~(m)~")
				case 2:
					raw = append(raw, "if(flying)", "{")
					open = append(open, true)
				case 3:
					if len(open) > 0 {
						ifBody := open[len(open)-1]
						open = open[:len(open)-1]
						raw = append(raw, "}")
						if ifBody {
							raw = append(raw, "else", "{")
							open = append(open, false)
						}
					}
				case 4:
					if len(open) > 0 {
						open = open[:len(open)-1]
						raw = append(raw, "}")
					}
				}
			}
			for range open {
				raw = append(raw, "}")
			}
			toks := make([]opcode.Token, len(raw))
			for i, r := range raw {
				toks[i] = opcode.Parse(r)
			}
			block, misses := Parse(toks)
			if len(misses) != 0 {
				return false
			}
			got := serialize(block)
			if len(raw) == 0 {
				return len(got) == 0
			}
			return reflect.DeepEqual(got, raw)
		},
		gen.SliceOf(gen.IntRange(0, 4)),
	))

	properties.TestingRun(t)
}
