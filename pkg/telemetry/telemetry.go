// Package telemetry installs the OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/JaimeStill/verdant/pkg/lifecycle"
)

// System owns the tracer provider and flushes it on shutdown.
type System interface {
	Start(lc *lifecycle.Coordinator) error
	Shutdown(ctx context.Context) error
}

type tracing struct {
	provider *sdktrace.TracerProvider
	logger   *slog.Logger
}

// New creates the tracer provider and installs it globally. Spans are
// written to w as JSON; a nil w means stdout. When tracing is disabled a
// system with nothing to flush is returned and the global provider is left
// as the no-op default.
func New(cfg *Config, w io.Writer, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "telemetry")

	if !cfg.Enabled {
		return &tracing{logger: logger}, nil
	}

	if w == nil {
		w = os.Stdout
	}

	opts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}

	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("", semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Info("tracing enabled", "service", cfg.ServiceName)

	return &tracing{provider: tp, logger: logger}, nil
}

func (t *tracing) Start(lc *lifecycle.Coordinator) error {
	if t.provider == nil {
		return nil
	}

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := t.Shutdown(context.Background()); err != nil {
			t.logger.Error("tracer shutdown failed", "error", err)
			return
		}
		t.logger.Info("tracer flushed")
	})

	return nil
}

// Shutdown flushes pending spans. It is a no-op when tracing is disabled.
func (t *tracing) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
