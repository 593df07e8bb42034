package workflow

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/JaimeStill/verdant/pkg/pipeline"
)

// observer records a span, a duration sample and a debug log per step,
// and counts run outcomes.
type observer struct {
	logger *slog.Logger
	tracer trace.Tracer
}

func newObserver(logger *slog.Logger, tracer trace.Tracer) *observer {
	return &observer{logger: logger, tracer: tracer}
}

func (o *observer) StepStarted(ctx context.Context, step string) context.Context {
	ctx, _ = o.tracer.Start(ctx, "step "+step,
		trace.WithAttributes(attribute.String("step", step)),
	)
	return ctx
}

func (o *observer) StepFinished(ctx context.Context, step string, elapsed time.Duration, err error) {
	status := "ok"
	span := trace.SpanFromContext(ctx)
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, Category(err))
	}
	span.End()

	stepSeconds.WithLabelValues(step, status).Observe(elapsed.Seconds())
	o.logger.DebugContext(ctx, "step finished",
		"step", step,
		"status", status,
		"elapsed", elapsed,
	)
}

func (o *observer) RunFinished(ctx context.Context, outcome pipeline.Outcome, err error) {
	runsTotal.WithLabelValues(outcome.String()).Inc()

	if outcome != pipeline.Failed {
		return
	}

	category := Category(err)
	failuresTotal.WithLabelValues(category).Inc()

	step, _ := pipeline.FailedStep(err)
	o.logger.ErrorContext(ctx, "diagnosis run failed",
		"step", step,
		"category", category,
		"error", err,
	)
}
