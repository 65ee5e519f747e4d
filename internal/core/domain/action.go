package domain

import (
	"fmt"
	"strings"
)

// Action is an operation applied to indices or documents.
type Action string

const (
	// ActionCreate creates an index.
	ActionCreate Action = "create"

	// ActionUpdate updates index mappings, or partially updates documents.
	ActionUpdate Action = "update"

	// ActionDelete deletes an index, or removes documents from it.
	ActionDelete Action = "delete"

	// ActionIndex upserts documents.
	ActionIndex Action = "index"

	// ActionRebuild deletes then recreates an index.
	ActionRebuild Action = "rebuild"
)

var actionPast = map[Action]string{
	ActionCreate:  "created",
	ActionUpdate:  "updated",
	ActionDelete:  "deleted",
	ActionIndex:   "indexed",
	ActionRebuild: "rebuilt",
}

// IndexActions are the actions accepted by the index command.
var IndexActions = []Action{ActionCreate, ActionDelete, ActionRebuild, ActionUpdate}

// DocumentActions are the actions accepted by the document command.
var DocumentActions = []Action{ActionIndex, ActionDelete, ActionUpdate}

// Past returns the past-tense verb used in reports.
func (a Action) Past() string {
	if p, ok := actionPast[a]; ok {
		return p
	}
	return string(a) + "d"
}

// String implements fmt.Stringer.
func (a Action) String() string {
	return string(a)
}

// IsValid reports whether a is one of the known actions.
func (a Action) IsValid() bool {
	_, ok := actionPast[a]
	return ok
}

// ParseAction parses s and checks it against the allowed set.
func ParseAction(s string, allowed []Action) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, candidate := range allowed {
		if a == candidate {
			return a, nil
		}
	}
	choices := make([]string, len(allowed))
	for i, c := range allowed {
		choices[i] = string(c)
	}
	return "", fmt.Errorf("%w: invalid action '%s' (choose from %s)", ErrInvalidInput, s, strings.Join(choices, ", "))
}

// BatchType selects how records are windowed into batches.
type BatchType string

const (
	// BatchOffset uses LIMIT/OFFSET windows.
	BatchOffset BatchType = "offset"

	// BatchPKFilters uses primary-key windows (pk > last).
	BatchPKFilters BatchType = "pk_filters"
)

// DefaultBatchSize is used when neither flag nor config sets one.
const DefaultBatchSize = 500

// ParseBatchType parses a batch type, defaulting to offset when empty.
func ParseBatchType(s string) (BatchType, error) {
	switch BatchType(strings.ToLower(strings.TrimSpace(s))) {
	case "", BatchOffset:
		return BatchOffset, nil
	case BatchPKFilters:
		return BatchPKFilters, nil
	default:
		return "", fmt.Errorf("%w: invalid batch type '%s' (choose from offset, pk_filters)", ErrInvalidInput, s)
	}
}
