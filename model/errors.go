package model

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure. A Kind is itself an error so callers
// can test for it with errors.Is.
type Kind string

// Failure kinds
const (
	SourceUnavailable    Kind = "SourceUnavailable"
	AuthenticationFailed Kind = "AuthenticationFailed"
	MalformedTimestamp   Kind = "MalformedTimestamp"
	SchemaViolation      Kind = "SchemaViolation"
	UnparsableGeometry   Kind = "UnparsableGeometry"
	EmptyResultSet       Kind = "EmptyResultSet"
	OutputTooLarge       Kind = "OutputTooLarge"
)

func (k Kind) Error() string {
	return string(k)
}

// Error is a classified failure naming the source, field and raw value involved
type Error struct {
	Kind   Kind
	Source string
	Field  string
	Value  interface{}
	Err    error
}

// NewError creates a classified error
func NewError(kind Kind, source, field string, value interface{}, err error) *Error {
	return &Error{Kind: kind, Source: source, Field: field, Value: value, Err: err}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Source != "" {
		msg += " in source " + e.Source
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" field %q", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" value %q", fmt.Sprint(e.Value))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches the error's Kind
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first classified error in err's chain, or "" if none
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	var kind Kind
	if errors.As(err, &kind) {
		return kind
	}
	return ""
}
