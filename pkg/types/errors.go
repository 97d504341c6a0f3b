package types

import (
	"fmt"
	"strings"
)

// Error tag constants for the runtime and builder error taxonomy.
const (
	TagNameError         = "NameError"
	TagAttributeError    = "AttributeError"
	TagTypeError         = "TypeError"
	TagValueError        = "ValueError"
	TagKeyError          = "KeyError"
	TagIndexError        = "IndexError"
	TagZeroDivisionError = "ZeroDivisionError"
	TagStructuralError   = "StructuralError"
	TagScopeError        = "ScopeError"
)

// Error is a tagged runtime or build-time error. Build-time tags
// (StructuralError, ScopeError) abort a builder chain; run-time tags abort
// only the call in which they were raised.
type Error struct {
	Message string
	Tags    []string
	Extra   map[string]Value
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s [%s]", e.Message, strings.Join(e.Tags, ", "))
}

// HasTag returns true if the error carries the specified tag.
func (e *Error) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ToValue converts the error into a map value for surfacing through the API.
func (e *Error) ToValue() Value {
	m := NewOrderedMap()
	m.Set("message", NewString(e.Message))

	tags := make([]Value, len(e.Tags))
	for i, tag := range e.Tags {
		tags[i] = NewString(tag)
	}
	m.Set("tags", NewList(tags))

	for k, v := range e.Extra {
		m.Set(k, v)
	}

	return NewMap(m)
}

// AsError returns err as a tagged *Error when it is one, or wraps it with no
// tags otherwise.
func AsError(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Message: err.Error()}
}

// Common error constructors.

// NewNameError creates a NameError for an unresolvable variable reference.
func NewNameError(name string) *Error {
	return &Error{Message: fmt.Sprintf("name %q is not defined", name), Tags: []string{TagNameError}}
}

// NewAttributeError creates an AttributeError.
func NewAttributeError(msg string) *Error {
	return &Error{Message: msg, Tags: []string{TagAttributeError}}
}

// NewTypeError creates a TypeError.
func NewTypeError(msg string) *Error {
	return &Error{Message: msg, Tags: []string{TagTypeError}}
}

// NewValueError creates a ValueError.
func NewValueError(msg string) *Error {
	return &Error{Message: msg, Tags: []string{TagValueError}}
}

// NewKeyError creates a KeyError.
func NewKeyError(msg string) *Error {
	return &Error{Message: msg, Tags: []string{TagKeyError}}
}

// NewIndexError creates an IndexError.
func NewIndexError(msg string) *Error {
	return &Error{Message: msg, Tags: []string{TagIndexError}}
}

// NewZeroDivisionError creates a ZeroDivisionError.
func NewZeroDivisionError() *Error {
	return &Error{Message: "division by zero", Tags: []string{TagZeroDivisionError}}
}

// NewStructuralError creates a StructuralError for malformed chain structure,
// such as ending a construct that was never opened.
func NewStructuralError(msg string) *Error {
	return &Error{Message: msg, Tags: []string{TagStructuralError}}
}

// NewScopeError creates a ScopeError for an operation used in a context
// where it is not legal.
func NewScopeError(msg string) *Error {
	return &Error{Message: msg, Tags: []string{TagScopeError}}
}
