package diagnoses

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/verdant/internal/workflow"
	"github.com/JaimeStill/verdant/pkg/auth"
	"github.com/JaimeStill/verdant/pkg/pagination"
	"github.com/JaimeStill/verdant/pkg/pipeline"
)

// System defines the public contract for diagnosis operations.
// Every read and delete is scoped to the owning subject.
type System interface {
	Handler() *Handler

	Diagnose(ctx context.Context, caller auth.Identity, cmd DiagnoseCommand) (*Diagnosis, error)

	List(
		ctx context.Context,
		owner string,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Diagnosis], error)

	Find(ctx context.Context, id uuid.UUID, owner string) (*Diagnosis, error)
	Delete(ctx context.Context, id uuid.UUID, owner string) error
}

// Runner executes the diagnosis workflow for one request.
type Runner interface {
	Execute(ctx context.Context, initial workflow.State) (workflow.State, pipeline.Outcome, error)
}
