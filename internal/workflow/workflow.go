package workflow

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/JaimeStill/verdant/pkg/pipeline"
)

const tracerName = "github.com/JaimeStill/verdant/internal/workflow"

// Workflow is the assembled diagnosis pipeline. It holds no per-run state
// and is safe for concurrent use.
type Workflow struct {
	rt       *Runtime
	pipeline *pipeline.Pipeline[State]
	tracer   trace.Tracer
}

// New builds the pipeline fetch → describe → classify → judge → persist.
func New(rt *Runtime) (*Workflow, error) {
	tracer := otel.Tracer(tracerName)

	p, err := pipeline.New(
		[]pipeline.Step[State]{
			FetchStep(rt),
			DescribeStep(rt),
			ClassifyStep(rt),
			JudgeStep(rt),
			PersistStep(rt),
		},
		pipeline.WithObserver(newObserver(rt.Logger, tracer)),
	)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	return &Workflow{
		rt:       rt,
		pipeline: p,
		tracer:   tracer,
	}, nil
}

// Execute runs the pipeline for one request. The returned state reflects
// the last step that completed; on Failed the error names the step.
func (w *Workflow) Execute(ctx context.Context, initial State) (State, pipeline.Outcome, error) {
	if initial.ImageID == "" || initial.Owner == "" {
		return initial, pipeline.Failed, ErrMissingIdentity
	}

	ctx, span := w.tracer.Start(ctx, "diagnosis",
		trace.WithAttributes(attribute.String("image_id", initial.ImageID)),
	)
	defer span.End()

	final, outcome, err := w.pipeline.Run(ctx, initial)

	span.SetAttributes(attribute.String("outcome", outcome.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, Category(err))
	}

	return final, outcome, err
}
