package opcode

import "strings"

// Region delimiters.
const (
	LineSeparator  = "&"
	OperandSep     = "|"
	targetOpen     = "%_"
	targetClose    = "_%"
	messageOpen    = "~("
	messageClose   = ")~"
	eqOpen         = "("
	eqClose        = ")"
	typeOpen       = "["
	typeClose      = "]"
	predicateEqual = "="
)

// Token is one parsed instruction unit.
type Token struct {
	// Raw is the token exactly as stored.
	Raw string

	Name   Cmd
	Target string

	Eq      string
	HasEq   bool
	Type    string
	HasType bool

	Message    string
	HasMessage bool
}

// Parse splits raw into its regions.
// The message region is cut out first so that its text cannot be mistaken
// for an eq region; the type region is searched after the eq region is cut
// so that placeholders inside eq do not shadow it.
func Parse(raw string) Token {
	t := Token{Raw: raw}
	rest := raw

	t.Message, t.HasMessage, rest = cut(rest, messageOpen, messageClose)
	t.Eq, t.HasEq, rest = cut(rest, eqOpen, eqClose)
	t.Type, t.HasType, rest = cut(rest, typeOpen, typeClose)
	t.Target, _, rest = cut(rest, targetOpen, targetClose)

	t.Name = Cmd(strings.TrimSpace(rest))
	return t
}

// cut removes the first open...close region from s and returns its content.
// A region without a closing delimiter runs to the end of s.
func cut(s, open, close string) (inner string, found bool, rest string) {
	i := strings.Index(s, open)
	if i < 0 {
		return "", false, s
	}
	start := i + len(open)
	j := strings.Index(s[start:], close)
	if j < 0 {
		return s[start:], true, s[:i]
	}
	return s[start : start+j], true, s[:i] + s[start+j+len(close):]
}

// String returns the raw token.
func (t Token) String() string {
	return t.Raw
}

// Is reports whether the token's name is exactly cmd.
func (t Token) Is(cmd Cmd) bool {
	return t.Name == cmd
}

// HasPrefix reports whether the token's name starts with cmd.
func (t Token) HasPrefix(cmd Cmd) bool {
	return strings.HasPrefix(string(t.Name), string(cmd))
}

// TargetOr returns the declared target or def when none is declared.
func (t Token) TargetOr(def string) string {
	if t.Target == "" {
		return def
	}
	return t.Target
}

// Predicate splits a condition's Eq into predicate name and operands.
// An Eq without "=" is a predicate with no operands.
func (t Token) Predicate() (name string, operands []string) {
	name, ops, ok := strings.Cut(t.Eq, predicateEqual)
	name = strings.TrimSpace(name)
	if !ok || ops == "" {
		return name, nil
	}
	return name, strings.Split(ops, OperandSep)
}

// Operands splits Eq on the operand separator, dropping empty entries.
func (t Token) Operands() []string {
	if t.Eq == "" {
		return nil
	}
	var out []string
	for _, op := range strings.Split(t.Eq, OperandSep) {
		if op != "" {
			out = append(out, op)
		}
	}
	return out
}

// Builder assembles a token in region order.
type Builder struct {
	name    Cmd
	target  string
	eq      *string
	typ     *string
	message *string
}

// NewToken starts a token named name.
func NewToken(name Cmd) *Builder {
	return &Builder{name: name}
}

// Target sets the target selector.
func (b *Builder) Target(target string) *Builder {
	b.target = target
	return b
}

// Eq sets the eq region.
func (b *Builder) Eq(eq string) *Builder {
	b.eq = &eq
	return b
}

// Type sets the type region.
func (b *Builder) Type(typ string) *Builder {
	b.typ = &typ
	return b
}

// Message sets the message region.
func (b *Builder) Message(msg string) *Builder {
	b.message = &msg
	return b
}

// String renders the token.
func (b *Builder) String() string {
	var sb strings.Builder
	sb.WriteString(string(b.name))
	if b.target != "" {
		sb.WriteString(targetOpen + b.target + targetClose)
	}
	if b.typ != nil && b.name == Call {
		// call[mode](name): the mode precedes the name by convention.
		sb.WriteString(typeOpen + *b.typ + typeClose)
	}
	if b.eq != nil {
		sb.WriteString(eqOpen + *b.eq + eqClose)
	}
	if b.typ != nil && b.name != Call {
		sb.WriteString(typeOpen + *b.typ + typeClose)
	}
	if b.message != nil {
		sb.WriteString(messageOpen + *b.message + messageClose)
	}
	return sb.String()
}

// SplitLine splits a serialized line into its tokens.
// An empty line has no tokens.
func SplitLine(line string) []string {
	if line == "" {
		return nil
	}
	return strings.Split(line, LineSeparator)
}

// JoinLine serializes tokens into one line.
func JoinLine(tokens []string) string {
	return strings.Join(tokens, LineSeparator)
}

// Head returns the opcode name of a line's first token.
func Head(line string) Cmd {
	first, _, _ := strings.Cut(line, LineSeparator)
	return Parse(first).Name
}
