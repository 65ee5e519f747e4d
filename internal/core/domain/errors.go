package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotSupported indicates the configured engine cannot perform an operation.
	ErrNotSupported = errors.New("not supported")

	// ErrUnsupportedType indicates an unknown engine or driver type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrAborted indicates the operator declined the confirmation prompt.
	// It is a controlled abort rather than a failure.
	ErrAborted = errors.New("aborted")

	// ErrDocumentRejected indicates the engine rejected documents while
	// raise-on-error was enabled.
	ErrDocumentRejected = errors.New("documents rejected by search engine")
)

// MalformedFilterError is returned when a CLI filter is not lookup=value.
type MalformedFilterError struct {
	Value string
}

func (e *MalformedFilterError) Error() string {
	return fmt.Sprintf("invalid filter: '%s' (filter must be formatted as '[Field Lookups]=[value]')", e.Value)
}

// Is reports ErrInvalidInput so callers can treat all input problems alike.
func (e *MalformedFilterError) Is(target error) bool {
	return target == ErrInvalidInput
}

// TargetKind names what an UnknownTargetError refers to.
type TargetKind string

const (
	TargetIndex  TargetKind = "indices"
	TargetObject TargetKind = "object"
)

// UnknownTargetError is returned when an index or object name is not registered.
type UnknownTargetError struct {
	Kind    TargetKind
	Names   []string
	Choices []string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("Unknown %s '%s', choices are: '%s'",
		e.Kind, strings.Join(e.Names, "', '"), strings.Join(e.Choices, "', '"))
}

// Is reports ErrNotFound.
func (e *UnknownTargetError) Is(target error) bool {
	return target == ErrNotFound
}

// IndexNotCreatedError is returned when resolved indices do not exist in the engine.
type IndexNotCreatedError struct {
	Names []string
}

func (e *IndexNotCreatedError) Error() string {
	return fmt.Sprintf("the following indices are not created: %s\n"+
		"Use 'searchsync list' to list indices' state and 'searchsync index create' to create them.",
		strings.Join(e.Names, ", "))
}

// Is reports ErrNotFound.
func (e *IndexNotCreatedError) Is(target error) bool {
	return target == ErrNotFound
}

// FieldError is returned by a store when a lookup cannot be resolved
// against a model's columns.
type FieldError struct {
	Field   string
	Lookup  string
	Reason  string
	Choices []string
}

func (e *FieldError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	if e.Lookup != "" {
		return fmt.Sprintf("Unsupported lookup '%s' for field '%s'", e.Lookup, e.Field)
	}
	return fmt.Sprintf("Cannot resolve keyword '%s' into field. Choices are: %s",
		e.Field, strings.Join(e.Choices, ", "))
}

// FilterValidationError wraps a store-level filter error with the model it came from.
type FilterValidationError struct {
	Model string
	Index string
	Err   error
}

func (e *FilterValidationError) Error() string {
	if e.Index != "" {
		return fmt.Sprintf("Error while filtering on '%s' (from index '%s'):\n%v", e.Model, e.Index, e.Err)
	}
	return fmt.Sprintf("Error while filtering on '%s':\n%v", e.Model, e.Err)
}

func (e *FilterValidationError) Unwrap() error {
	return e.Err
}
