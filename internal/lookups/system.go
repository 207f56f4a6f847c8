package lookups

import (
	"context"

	"github.com/JaimeStill/protrace/internal/workflow"
)

// System defines the public contract for lookup operations.
type System interface {
	Handler() *Handler

	// Lookup validates req and runs the workflow. Validation failures wrap
	// workflow.ErrValidation; AUTH and TRACE1 failures are returned as-is.
	Lookup(ctx context.Context, req workflow.Request) (*workflow.Result, error)
}
