package opcode

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/zurustar/blockscript/pkg/world"
)

// ParseError is the typed result of a failed argument-region parse.
// Callers decide whether a failure degrades to a no-op or a default.
type ParseError struct {
	Region string
	Input  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s %q: %v", e.Region, e.Input, e.Err)
	}
	return fmt.Sprintf("parse %s %q: %s", e.Region, e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseInt parses a base-10 integer argument. Leading zeros do not make
// the value octal, and 0x/0o/0b prefixes are rejected. Decimal input with a
// zero fraction ("20.0") is accepted.
func ParseInt(region, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ParseError{Region: region, Input: s, Reason: "empty"}
	}
	d := trimLeadingZeros(s)
	n, err := cast.ToIntE(d)
	if err != nil {
		f, ferr := cast.ToFloat64E(d)
		if ferr != nil || math.IsInf(f, 0) || f != float64(int(f)) {
			return 0, &ParseError{Region: region, Input: s, Err: err}
		}
		n = int(f)
	}
	return n, nil
}

// trimLeadingZeros drops zeros after the sign so cast never sees a base
// prefix: "010" -> "10", "-007" -> "-7", "0x10" -> "x10".
func trimLeadingZeros(s string) string {
	sign := ""
	if s[0] == '+' || s[0] == '-' {
		sign, s = s[:1], s[1:]
	}
	t := strings.TrimLeft(s, "0")
	if len(t) < len(s) && (t == "" || t[0] == '.') {
		t = "0" + t
	}
	return sign + t
}

// ParseFloat parses a decimal argument.
func ParseFloat(region, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ParseError{Region: region, Input: s, Reason: "empty"}
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return 0, &ParseError{Region: region, Input: s, Err: err}
	}
	return f, nil
}

// ParseLocation parses "x|y|z", "x|y|z|yaw|pitch" or the same with ","
// separators.
func ParseLocation(region, s string) (world.Location, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ','
	})
	if len(parts) != 3 && len(parts) != 5 {
		return world.Location{}, &ParseError{
			Region: region, Input: s,
			Reason: fmt.Sprintf("want 3 or 5 coordinates, got %d", len(parts)),
		}
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		f, err := ParseFloat(region, p)
		if err != nil {
			return world.Location{}, err
		}
		vals[i] = f
	}
	loc := world.Location{X: vals[0], Y: vals[1], Z: vals[2]}
	if len(vals) == 5 {
		loc.Yaw, loc.Pitch = vals[3], vals[4]
	}
	return loc, nil
}
