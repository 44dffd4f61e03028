package compiler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/blockscript/pkg/opcode"
	"github.com/zurustar/blockscript/pkg/store"
	"github.com/zurustar/blockscript/pkg/world"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func region(width, depth, height int) Region {
	return Region{Width: width, Depth: depth, Height: height, BandStep: 1}
}

func event(label string) Marker {
	return Marker{Family: FamilyEvent, Label: Label{Primary: label}}
}

func messageAction(text string) Marker {
	inv := world.NewInventory(ContainerSize, "")
	inv.SetSlot(0, world.ItemStack{Material: "paper", Name: text, Amount: 1})
	return Marker{Family: FamilyAction, Label: Label{Primary: "message", Target: "self"}, Container: inv}
}

type failingStore struct{ store.MemoryStore }

func (*failingStore) SetLines(context.Context, string, []string) error {
	return errors.New("disk full")
}

func TestCompile_EmptyGrid(t *testing.T) {
	st := store.NewMemoryStore()
	_ = st.SetLines(context.Background(), "lobby", []string{"join&message~(stale)~"})
	c := New(st, nil, WithLogger(quietLogger()))

	program, err := c.Compile(context.Background(), NewMapGrid("lobby_dev", region(8, 8, 4)))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(program) != 0 {
		t.Errorf("expected empty program, got %v", program)
	}
	lines, _ := st.Lines(context.Background(), "lobby")
	if len(lines) != 0 {
		t.Errorf("store still holds %v", lines)
	}
	if st.Saves() != 1 {
		t.Errorf("Save called %d times, want 1", st.Saves())
	}
}

func TestCompile_ScanOrder(t *testing.T) {
	g := NewMapGrid("arena_dev", region(8, 3, 2))
	// band 0, row 0
	g.Set(Pos{0, 0, 0}, event("join"))
	g.Set(Pos{1, 0, 0}, messageAction("Hello"))
	// gap at x=2 ends the row; x=3 is never read
	g.Set(Pos{3, 0, 0}, messageAction("unreached"))
	// band 0, row 2
	g.Set(Pos{0, 0, 2}, event("chat"))
	g.Set(Pos{1, 0, 2}, Marker{Family: FamilyAction, Label: Label{Primary: "cancel-event"}})
	// band 1, row 0
	g.Set(Pos{0, 1, 0}, event("block-break"))

	st := store.NewMemoryStore()
	program, err := New(st, nil, WithLogger(quietLogger())).Compile(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"join&message%_self_%~(Hello)~",
		"chat&cancelEvent",
		"blockBreak",
	}
	if !reflect.DeepEqual(program, want) {
		t.Errorf("program = %v, want %v", program, want)
	}
	stored, _ := st.Lines(context.Background(), "arena")
	if !reflect.DeepEqual(stored, want) {
		t.Errorf("stored under arena = %v", stored)
	}
}

func TestCompile_ScopeTokensShareLine(t *testing.T) {
	inv := world.NewInventory(ContainerSize, "")
	inv.SetSlot(0, world.ItemStack{Material: "paper", Name: "stop", Amount: 1})

	g := NewMapGrid("w", region(8, 1, 1))
	g.Set(Pos{0, 0, 0}, event("chat"))
	g.Set(Pos{1, 0, 0}, Marker{Family: FamilyCondition, Label: Label{Primary: "message"}, Container: inv})
	g.Set(Pos{2, 0, 0}, Marker{Family: FamilyOpenScope})
	g.Set(Pos{3, 0, 0}, Marker{Family: FamilyAction, Label: Label{Primary: "cancelEvent"}})
	g.Set(Pos{4, 0, 0}, Marker{Family: FamilyCloseScope})
	g.Set(Pos{5, 0, 0}, Marker{Family: FamilyElse})
	g.Set(Pos{6, 0, 0}, Marker{Family: FamilyOpenScope})
	g.Set(Pos{7, 0, 0}, Marker{Family: FamilyCloseScope})

	program := New(store.NewMemoryStore(), nil, WithLogger(quietLogger())).Scan(g)
	want := []string{"chat&if(message=stop)&{&cancelEvent&}&else&{&}"}
	if !reflect.DeepEqual(program, want) {
		t.Errorf("program = %v, want %v", program, want)
	}
}

func TestCompile_StoreFailure(t *testing.T) {
	g := NewMapGrid("w", region(2, 1, 1))
	g.Set(Pos{0, 0, 0}, event("join"))

	program, err := New(&failingStore{}, nil, WithLogger(quietLogger())).Compile(context.Background(), g)
	if err == nil {
		t.Fatal("expected store error")
	}
	if len(program) != 1 {
		t.Errorf("program should still be returned, got %v", program)
	}
}

func TestCompile_MissHandler(t *testing.T) {
	inv := world.NewInventory(ContainerSize, "")
	inv.SetSlot(ValueSlot, world.ItemStack{Material: "paper", Name: "soon", Amount: 1})

	g := NewMapGrid("w", region(4, 1, 1))
	g.Set(Pos{0, 0, 0}, event("join"))
	g.Set(Pos{1, 0, 0}, Marker{Family: FamilyAction, Label: Label{Primary: "delay"}, Container: inv})
	g.Set(Pos{2, 0, 0}, Marker{Family: FamilyAction, Label: Label{Primary: "dance"}})
	g.Set(Pos{3, 0, 0}, messageAction("after"))

	var misses []*MissError
	c := New(store.NewMemoryStore(), nil,
		WithLogger(quietLogger()),
		WithMissHandler(func(err *MissError) { misses = append(misses, err) }))

	program := c.Scan(g)
	if !reflect.DeepEqual(program, []string{"join&message%_self_%~(after)~"}) {
		t.Errorf("program = %v", program)
	}
	// Unrecognized labels are logged only; the handler sees parse misses.
	if len(misses) != 1 {
		t.Fatalf("misses = %v", misses)
	}
	if misses[0].Kind != MissParse || misses[0].Pos != (Pos{1, 0, 0}) {
		t.Errorf("unexpected miss %+v", misses[0])
	}
	var pe *opcode.ParseError
	if !errors.As(misses[0], &pe) {
		t.Errorf("miss should wrap a ParseError: %v", misses[0])
	}
}

func TestWorldID(t *testing.T) {
	tests := []struct{ name, suffix, want string }{
		{"lobby_dev", "_dev", "lobby"},
		{"lobby", "_dev", "lobby"},
		{"lobby_test", "_test", "lobby"},
		{"lobby_dev", "", "lobby_dev"},
	}
	for _, tt := range tests {
		if got := WorldID(tt.name, tt.suffix); got != tt.want {
			t.Errorf("WorldID(%q, %q) = %q, want %q", tt.name, tt.suffix, got, tt.want)
		}
	}

	c := New(store.NewMemoryStore(), nil, WithWorldSuffix("_edit"))
	if got := c.WorldID(NewMapGrid("hub_edit", Region{})); got != "hub" {
		t.Errorf("Compiler.WorldID = %q", got)
	}
}

// TestProperty_RowRoundTrip checks that every compiled line splits back into
// exactly the tokens its row resolved to.
func TestProperty_RowRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	r := NewResolver(DefaultTable())
	labels := []string{"join", "chat", "quit", "move", "respawn"}

	properties.Property("split(line) == resolved row", prop.ForAll(
		func(picks []int, texts []string) bool {
			g := NewMapGrid("w", region(len(picks)+1, 1, 1))
			var want []string
			for i, p := range picks {
				var m Marker
				if p%2 == 0 || i >= len(texts) || texts[i] == "" {
					m = event(labels[p%len(labels)])
				} else {
					m = messageAction(texts[i])
				}
				g.Set(Pos{X: i}, m)
				tok, err := r.Resolve(m)
				if err != nil {
					// 空になったテキストはミスとして行から落ちる
					continue
				}
				if strings.Contains(tok, opcode.LineSeparator) {
					return false
				}
				want = append(want, tok)
			}
			program := New(store.NewMemoryStore(), r, WithLogger(quietLogger())).Scan(g)
			if len(want) == 0 {
				return len(program) == 0
			}
			return len(program) == 1 && reflect.DeepEqual(opcode.SplitLine(program[0]), want)
		},
		gen.SliceOfN(6, gen.IntRange(0, 20)),
		gen.SliceOfN(6, gen.OneGenOf(
			gen.AlphaString(),
			gen.AlphaString().Map(func(s string) string { return s + " & " + s }),
			gen.AlphaString().Map(func(s string) string { return "&" + s + "&&" }),
		)),
	))

	properties.TestingRun(t)
}
