// Package errors defines the error taxonomy shared by the query compiler,
// the template engine and their collaborators.
//
// Errors fall into four categories:
//   - Syntax: malformed query clause or tag arguments, fatal to one call
//   - Lookup: missing data, resolved locally and never surfaced
//   - Capability: an extension failed or returned the wrong type
//   - IO: a collaborator could not fetch content
package errors

import (
	"errors"
	"io/fs"
)

// Category represents which part of the taxonomy an error belongs to.
type Category int

const (
	// CategoryUnknown is used for errors outside the taxonomy.
	CategoryUnknown Category = iota

	// CategorySyntax covers malformed queries and tag arguments.
	CategorySyntax

	// CategoryLookup covers missing fields or records.
	CategoryLookup

	// CategoryCapability covers extension failures, type mismatches and
	// runaway recursion through extension tags.
	CategoryCapability

	// CategoryIO covers content that could not be read.
	CategoryIO
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategorySyntax:
		return "syntax"
	case CategoryLookup:
		return "lookup"
	case CategoryCapability:
		return "capability"
	case CategoryIO:
		return "io"
	default:
		return "unknown"
	}
}

// Categorize determines which category err belongs to.
func Categorize(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	if errors.Is(err, ErrSyntax) {
		return CategorySyntax
	}

	var capErr *CapabilityError
	if errors.As(err, &capErr) {
		return CategoryCapability
	}
	if errors.Is(err, ErrTypeMismatch) || errors.Is(err, ErrRecursionLimit) {
		return CategoryCapability
	}

	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return CategoryIO
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrNotFound) {
		return CategoryLookup
	}

	return CategoryUnknown
}

// IsSyntax reports whether err is a syntax error.
func IsSyntax(err error) bool {
	return Categorize(err) == CategorySyntax
}

// IsNotFound reports whether err means missing content or data.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}
