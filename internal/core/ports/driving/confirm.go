package driving

import (
	"context"

	"github.com/custodia-labs/searchsync/internal/core/domain"
)

// Confirmer approves a plan before any write happens.
type Confirmer interface {
	// Confirm returns true to proceed and false to abort.
	Confirm(ctx context.Context, plan Plan) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, plan Plan) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, plan Plan) (bool, error) {
	return f(ctx, plan)
}

// AlwaysConfirm approves every plan.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, Plan) (bool, error) { return true, nil })

// PlanKind tells whether a plan targets documents or whole indices.
type PlanKind string

const (
	PlanDocuments PlanKind = "documents"
	PlanIndices   PlanKind = "indices"
)

// Plan describes what a command is about to change.
type Plan struct {
	Kind   PlanKind
	Action domain.Action
	Items  []PlanItem
}

// PlanItem is one target of a plan. Count is only meaningful for
// document plans and may drift from what is executed.
type PlanItem struct {
	Index string
	Model string
	Count int
}
