package compiler

import (
	"errors"
	"fmt"
)

// MissKind classifies why a marker produced no token.
type MissKind string

const (
	// MissUnrecognized: the family/label pair maps to no opcode.
	MissUnrecognized MissKind = "unrecognized"
	// MissParse: an argument could not be extracted from the container.
	MissParse MissKind = "parse"
)

// ErrNoValue is wrapped when a required slot is empty.
var ErrNoValue = errors.New("no value")

// MissError reports a marker that was skipped.
type MissError struct {
	Kind   MissKind
	Family Family
	Label  string
	// Pos is filled in by the Compiler; the Resolver leaves it zero.
	Pos Pos
	Err error
}

func (e *MissError) Error() string {
	msg := fmt.Sprintf("%s marker %s %q at %d,%d,%d",
		e.Kind, e.Family, e.Label, e.Pos.X, e.Pos.Y, e.Pos.Z)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissError) Unwrap() error {
	return e.Err
}

func unrecognized(m Marker) *MissError {
	return &MissError{Kind: MissUnrecognized, Family: m.Family, Label: m.Label.Primary}
}

func parseMiss(m Marker, err error) *MissError {
	return &MissError{Kind: MissParse, Family: m.Family, Label: m.Label.Primary, Err: err}
}

// IsUnrecognized reports whether err is an unrecognized-marker miss.
func IsUnrecognized(err error) bool {
	var me *MissError
	return errors.As(err, &me) && me.Kind == MissUnrecognized
}
