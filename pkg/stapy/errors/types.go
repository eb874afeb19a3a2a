package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below unwrap to one of these so callers can
// use errors.Is without knowing the concrete type.
var (
	// ErrSyntax indicates a malformed query clause or tag argument list.
	ErrSyntax = errors.New("syntax error")

	// ErrNotFound indicates a collaborator could not find a file or record.
	ErrNotFound = errors.New("not found")

	// ErrCapability indicates an extension capability failed.
	ErrCapability = errors.New("capability failed")

	// ErrTypeMismatch indicates a capability returned a value of the wrong type.
	ErrTypeMismatch = errors.New("capability type mismatch")

	// ErrRecursionLimit indicates expansion nested deeper than allowed.
	ErrRecursionLimit = errors.New("recursion limit exceeded")
)

// SyntaxError reports a malformed query or tag, with the offending source.
type SyntaxError struct {
	// Source is the full query string or tag text being compiled.
	Source string
	// Snippet is the token or fragment that could not be parsed.
	Snippet string
	// Msg describes what was expected.
	Msg string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("syntax error: %s near %q in %q", e.Msg, e.Snippet, e.Source)
	}
	return fmt.Sprintf("syntax error: %s in %q", e.Msg, e.Source)
}

// Unwrap returns ErrSyntax for errors.Is support.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// CapabilityError wraps an error raised by a named capability.
type CapabilityError struct {
	// Capability is the dispatched name, including the plugin prefix when targeted.
	Capability string
	// Plugin is the plugin whose capability failed.
	Plugin string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *CapabilityError) Error() string {
	if e.Plugin != "" {
		return fmt.Sprintf("capability %s.%s: %v", e.Plugin, e.Capability, e.Err)
	}
	return fmt.Sprintf("capability %s: %v", e.Capability, e.Err)
}

// Unwrap returns the underlying error.
func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// Is reports ErrCapability so callers can match without errors.As.
func (e *CapabilityError) Is(target error) bool {
	return target == ErrCapability
}

// TypeMismatchError is returned when a same-type capability returns a value
// whose type differs from its input.
type TypeMismatchError struct {
	Capability string
	Plugin     string
	Expected   string
	Actual     string
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	if e.Plugin == "" {
		return fmt.Sprintf("capability %s returned %s, expected %s", e.Capability, e.Actual, e.Expected)
	}
	return fmt.Sprintf("capability %s.%s returned %s, expected %s",
		e.Plugin, e.Capability, e.Actual, e.Expected)
}

// Unwrap returns ErrTypeMismatch for errors.Is support.
func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}

// RecursionLimitError is returned when nested expansion exceeds the limit.
type RecursionLimitError struct {
	// Limit is the configured maximum depth.
	Limit int
	// Tag is the tag text whose expansion crossed the limit.
	Tag string
}

// Error implements the error interface.
func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("recursion limit (%d) exceeded expanding %s", e.Limit, e.Tag)
}

// Unwrap returns ErrRecursionLimit for errors.Is support.
func (e *RecursionLimitError) Unwrap() error {
	return ErrRecursionLimit
}

// IOError wraps a failure to read content from a collaborator.
type IOError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}
