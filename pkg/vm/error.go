// Package vm provides error handling for the blockscript interpreter.
package vm

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of runtime error.
type ErrorType string

const (
	// ErrorParseMiss: an argument region held malformed text.
	ErrorParseMiss ErrorType = "PARSE_MISS"
	// ErrorResolutionMiss: a target, entity kind, program or predicate
	// could not be resolved.
	ErrorResolutionMiss ErrorType = "RESOLUTION_MISS"
	// ErrorStructuralMiss: scope braces or else tokens were out of place.
	ErrorStructuralMiss ErrorType = "STRUCTURAL_MISS"
	// ErrorStackOverflow: a sync call exceeded the call depth limit.
	ErrorStackOverflow ErrorType = "STACK_OVERFLOW"
)

// RuntimeError describes one instruction the interpreter skipped.
// None of them abort the line being executed.
type RuntimeError struct {
	Type    ErrorType
	Message string
	// Token is the raw token involved, if any.
	Token string
	Err   error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if e.Token != "" {
		msg += fmt.Sprintf(" in %q", e.Token)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether the error ended the call it occurred in.
// Only stack overflow stops anything, and only the overflowing call.
func (e *RuntimeError) IsFatal() bool {
	return e.Type == ErrorStackOverflow
}

// NewRuntimeError creates a new RuntimeError.
func NewRuntimeError(errType ErrorType, message, token string) *RuntimeError {
	return &RuntimeError{Type: errType, Message: message, Token: token}
}

// NewParseMiss wraps an argument parse failure.
func NewParseMiss(token string, err error) *RuntimeError {
	return &RuntimeError{Type: ErrorParseMiss, Message: "bad argument", Token: token, Err: err}
}

// NewResolutionMiss reports something that could not be resolved.
func NewResolutionMiss(token, format string, args ...any) *RuntimeError {
	return NewRuntimeError(ErrorResolutionMiss, fmt.Sprintf(format, args...), token)
}

// NewStructuralMiss reports a misplaced scope or else token.
func NewStructuralMiss(token, message string) *RuntimeError {
	return NewRuntimeError(ErrorStructuralMiss, message, token)
}

// NewStackOverflowError creates a stack overflow error.
func NewStackOverflowError(token string, depth, limit int) *RuntimeError {
	return NewRuntimeError(ErrorStackOverflow,
		fmt.Sprintf("stack overflow: depth %d exceeds maximum %d", depth, limit), token)
}

// AsRuntimeError extracts a *RuntimeError from err.
func AsRuntimeError(err error) (*RuntimeError, bool) {
	var re *RuntimeError
	ok := errors.As(err, &re)
	return re, ok
}
