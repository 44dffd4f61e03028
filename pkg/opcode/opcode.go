// Package opcode defines the instruction format shared by the layout
// compiler and the interpreter. The compiler emits lines of Tokens, the
// interpreter parses and executes them.
//
// A line is an "&"-joined list of tokens. A token is an opcode name with up
// to four optional regions:
//
//	name %_target_% (eq) [type] ~(message)~
//
// Regions are found by first-occurrence substring search, not by balanced
// parsing; nested parentheses inside a region are not supported.
package opcode

// Cmd represents an opcode name.
// Each Cmd corresponds to a token name the interpreter dispatches on.
type Cmd string

// Scope delimiters. They are ordinary tokens inside a line.
const (
	OpenScope  Cmd = "{"
	CloseScope Cmd = "}"
)

// Control-flow opcodes. These are matched exactly; every other opcode is
// matched by name prefix.
const (
	// If evaluates a condition and runs the following scope when it holds.
	// Eq: <predicate>=<operand>|<operand>...  Type: optional radius.
	If Cmd = "if"

	// IfNot is If with the predicate's negated variant.
	IfNot Cmd = "ifnot"

	// Else runs its scope when the directly preceding If did not.
	Else Cmd = "else"

	// Delay suspends the rest of the current scope for Eq scheduler ticks.
	Delay Cmd = "delay"

	// Call runs every line defining the named program.
	// Type: sync or async. Eq: program name.
	Call Cmd = "call"

	// Function is the first token of a line defining a named program.
	// Eq: program name.
	Function Cmd = "function"
)

// Call modes carried in the Type region of a Call token.
const (
	CallSync  = "sync"
	CallAsync = "async"
)

// Action opcodes.
const (
	// Message sends Message to the target player.
	Message Cmd = "message"

	// Broadcast sends Message to every player in the world.
	Broadcast Cmd = "broadcast"

	// GameMode switches the target player's mode to Eq.
	GameMode Cmd = "gamemode"

	// SetHealth sets the target's health to Eq (number or placeholder).
	SetHealth Cmd = "setHealth"

	// SetFood sets the target player's hunger to Eq.
	SetFood Cmd = "setFood"

	// Teleport moves the target to Eq, "x|y|z|yaw|pitch" or a placeholder.
	Teleport Cmd = "teleport"

	// SetBlock places block Type at coordinates Eq.
	SetBlock Cmd = "setBlock"

	// OpenInventory opens an empty container of Eq rows titled Message.
	OpenInventory Cmd = "openInventory"

	// CloseInventory closes whatever the target player has open.
	CloseInventory Cmd = "closeInventory"

	// ClearInventory empties the target player's inventory.
	ClearInventory Cmd = "clearInventory"

	// GiveItems gives every item in the Eq list.
	GiveItems Cmd = "giveItems"

	// DeleteItems removes every item in the Eq list.
	DeleteItems Cmd = "deleteItems"

	// GiveRandomItem gives one item drawn from the Eq list.
	GiveRandomItem Cmd = "giveRandomItem"

	// CancelEvent suppresses the triggering host event.
	CancelEvent Cmd = "cancelEvent"
)

// Event opcodes. A line whose first token is one of these runs when the
// host fires the matching event.
const (
	EventJoin           Cmd = "join"
	EventQuit           Cmd = "quit"
	EventChat           Cmd = "chat"
	EventBlockBreak     Cmd = "blockBreak"
	EventBlockPlace     Cmd = "blockPlace"
	EventEntityDeath    Cmd = "entityDeath"
	EventPlayerDeath    Cmd = "playerDeath"
	EventEntityDamage   Cmd = "entityDamage"
	EventDamageByEntity Cmd = "damageByEntity"
	EventRightClick     Cmd = "rightClick"
	EventLeftClick      Cmd = "leftClick"
	EventSneak          Cmd = "sneak"
	EventSprint         Cmd = "sprint"
	EventFlyToggle      Cmd = "flyToggle"
	EventMove           Cmd = "move"
	EventJump           Cmd = "jump"
	EventInventoryClick Cmd = "inventoryClick"
	EventInventoryOpen  Cmd = "inventoryOpen"
	EventInventoryClose Cmd = "inventoryClose"
	EventHeldSlotChange Cmd = "heldSlotChange"
	EventRespawn        Cmd = "respawn"
	EventDropItem       Cmd = "dropItem"
	EventPickupItem     Cmd = "pickupItem"
)

// IsCombatEvent reports whether events of kind carry attacker and victim.
func IsCombatEvent(kind Cmd) bool {
	switch kind {
	case EventEntityDeath, EventPlayerDeath, EventEntityDamage, EventDamageByEntity:
		return true
	}
	return false
}

// Target selectors.
const (
	TargetSelf     = "self"
	TargetAttacker = "attacker"
	TargetVictim   = "victim"
	TargetRandom   = "random"
)
