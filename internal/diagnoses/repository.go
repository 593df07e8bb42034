package diagnoses

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/verdant/internal/workflow"
	"github.com/JaimeStill/verdant/pkg/auth"
	"github.com/JaimeStill/verdant/pkg/pagination"
	"github.com/JaimeStill/verdant/pkg/pipeline"
	"github.com/JaimeStill/verdant/pkg/query"
	"github.com/JaimeStill/verdant/pkg/repository"
)

type repo struct {
	db         *sql.DB
	runner     Runner
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a diagnosis repository implementing the System interface.
func New(
	db *sql.DB,
	runner Runner,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		runner:     runner,
		logger:     logger.With("system", "diagnoses"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Diagnose(ctx context.Context, caller auth.Identity, cmd DiagnoseCommand) (*Diagnosis, error) {
	if cmd.ImageID == "" || cmd.UserText == "" {
		return nil, ErrInvalidRequest
	}
	if caller.Subject == "" {
		return nil, ErrUnauthorized
	}

	initial := workflow.NewState(cmd.ImageID, cmd.UserText, caller.Authorization, caller.Subject)
	final, outcome, err := r.runner.Execute(ctx, initial)

	switch outcome {
	case pipeline.Completed:
	case pipeline.TerminatedEarly:
		r.logger.InfoContext(ctx, "image is not a plant", "image_id", cmd.ImageID)
		return nil, ErrNotPlant
	default:
		if err == nil {
			err = fmt.Errorf("unexpected outcome %s", outcome)
		}
		return nil, fmt.Errorf("%w: %w", ErrFailed, err)
	}

	id, ok := final.DiagnosisID.Get()
	if !ok {
		return nil, fmt.Errorf("%w: completed without diagnosis id", ErrFailed)
	}

	d, err := r.Find(ctx, id, caller.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: load stored diagnosis: %w", ErrFailed, err)
	}

	r.logger.InfoContext(ctx, "diagnosis created", "id", d.ID, "image_id", d.ImageID, "score", d.Score)
	return d, nil
}

func (r *repo) List(
	ctx context.Context,
	owner string,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Diagnosis], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("Owner", owner).
		WhereSearch(page.Search, "ImageID", "UserText", "Disease")
	filters.Apply(qb)

	if sort := resolveSort(page.Sort); len(sort) > 0 {
		qb.OrderByFields(sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count diagnoses: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDiagnosis)
	if err != nil {
		return nil, fmt.Errorf("query diagnoses: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID, owner string) (*Diagnosis, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("ID", id).
		WhereEquals("Owner", owner).
		BuildSingleOrNull()

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDiagnosis)
	if err != nil {
		return nil, repository.MapError(err, tableErrors)
	}
	return &d, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID, owner string) error {
	err := repository.InTx(ctx, r.db, func(tx *sql.Tx) error {
		return repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM diagnoses WHERE id = $1 AND owner = $2",
			id, owner,
		)
	})
	if err != nil {
		return repository.MapError(err, tableErrors)
	}

	r.logger.InfoContext(ctx, "diagnosis deleted", "id", id)
	return nil
}
