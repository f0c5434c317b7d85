// Package refine rewrites draft motion programs through an external text
// generator. Refinement is best effort: any failure leaves the dialect out of
// the result and the caller keeps the draft.
package refine

import (
	"context"

	"github.com/pathforge/api/internal/model"
)

// Refiner returns refined program text keyed by dialect. A missing key means no
// refinement is available for that dialect.
type Refiner interface {
	Refine(ctx context.Context, path model.Path, drafts map[model.Dialect]string) map[model.Dialect]string
}

// Disabled never refines anything
type Disabled struct{}

func (Disabled) Refine(context.Context, model.Path, map[model.Dialect]string) map[model.Dialect]string {
	return map[model.Dialect]string{}
}
