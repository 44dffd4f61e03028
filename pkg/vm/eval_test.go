package vm

import (
	"testing"

	"github.com/zurustar/blockscript/pkg/opcode"
	"github.com/zurustar/blockscript/pkg/world"
)

func TestEval(t *testing.T) {
	w := world.NewMemoryWorld("lobby")
	alice := world.NewMemoryPlayer("p1", "alice")
	w.AddPlayer(alice)
	alice.SetLocation(world.Location{X: 0.5, Y: 65, Z: 0.5})
	alice.SetMovement(true, false, false)
	alice.Inventory().SetSlot(0, world.ItemStack{Material: "diamond_sword", Name: "Excalibur", Amount: 1})
	alice.Inventory().Add(world.ItemStack{Material: "apple", Amount: 5})
	alice.SetTargetBlock(&world.Location{X: 2, Y: 65, Z: 0})
	w.SetBlock(world.Location{X: 0, Y: 64, Z: 0}, "stone")
	w.SetBlock(world.Location{X: 2, Y: 65, Z: 0}, "oak_log")

	ev := world.NewEvent("chat")
	ev.Message = "Hello"
	ev.Item = &world.ItemStack{Material: "apple", Amount: 1}
	b := Binding{World: w, TriggerID: "p1", Event: ev}

	tests := []struct {
		token string
		want  bool
	}{
		// flags
		{"if(flying)", true},
		{"ifnot(flying)", false},
		{"if(!flying)", false},
		{"if(flying_no)", false},
		{"ifnot(!flying)", true},
		{"if(sneaking)", false},
		{"if(sprinting_no)", true},

		// text, case folded
		{"if(message=hello)", true},
		{"if(message=bye|HELLO)", true},
		{"ifnot(message=bye|hello)", false},
		{"ifnot(message=bye|ciao)", true},
		{"if(name=ALICE)", true},

		// possession: one item by meta, stacks by material count
		{"if(has_item=item[-apple*-])", true},
		{"if(has_item=item[-apple*-][=5=])", true},
		{"if(has_item=item[-apple*-][=6=])", false},
		{"if(has_item=item[-stone*-])", false},
		// negateFirst: one missing operand is enough
		{"ifnot(has_item=item[-apple*-]|item[-stone*-])", true},
		{"ifnot(has_item=item[-apple*-]|item[-diamond_sword*Excalibur-])", false},

		// held items
		{"if(hand_item=item[-diamond_sword*Excalibur-])", true},
		{"if(hand_item=item[-diamond_sword*Blunt-])", false},
		{"if(hand_type=DIAMOND_SWORD)", true},
		{"if(offhand_item=item[-shield*-])", false},
		{"ifnot(hand_type=stick|bow)", true},
		{"if(item_equals=item[-apple*-])", true},

		// locations
		{"if(standing_on=0,64,0)", true},
		{"if(standing_on_type=stone)", true},
		{"ifnot(standing_on_type=stone|dirt)", false},
		{"if(looking_at=2,65,0)", true},
		{"if(looking_at_type=oak_log)", true},
		{"if(looking_at=2,65,0)[1]", false},
		{"if(near=3,65,0)", true},
		{"if(near=3,65,0)[2]", false},
		{"ifnot(near=3,65,0|100,65,0)", true},

		// placeholders in operands
		{"if(message=apple[message]~)", true},

		{"if()", false},
	}
	e := &Evaluator{}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := e.Eval(opcode.Parse(tt.token), alice, b)
			if err != nil {
				t.Fatalf("Eval error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Eval = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEval_Misses(t *testing.T) {
	w := world.NewMemoryWorld("lobby")
	zombie := world.NewMemoryEntity("z1", "zombie", 20)
	w.AddEntity(zombie)
	b := Binding{World: w, TriggerID: "z1", Event: world.NewEvent("entityDamage")}

	tests := []struct {
		token string
		actor world.Entity
		want  ErrorType
	}{
		{"if(dancing)", zombie, ErrorResolutionMiss},
		{"if(flying)", zombie, ErrorResolutionMiss},
		{"if(has_item=item[-apple*-])", zombie, ErrorResolutionMiss},
		{"if(name=zombie)", nil, ErrorResolutionMiss},
		{"if(near=1,2)", zombie, ErrorParseMiss},
		{"if(near=1,2,3)[far]", zombie, ErrorParseMiss},
	}
	e := &Evaluator{}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := e.Eval(opcode.Parse(tt.token), tt.actor, b)
			if got {
				t.Error("miss evaluated true")
			}
			re, ok := AsRuntimeError(err)
			if !ok {
				t.Fatalf("error = %v, want RuntimeError", err)
			}
			if re.Type != tt.want {
				t.Errorf("type = %s, want %s", re.Type, tt.want)
			}
		})
	}
}
