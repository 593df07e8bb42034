package api

import (
	"fmt"

	"github.com/JaimeStill/verdant/internal/config"
	"github.com/JaimeStill/verdant/internal/diagnoses"
	"github.com/JaimeStill/verdant/internal/workflow"
	"github.com/JaimeStill/verdant/pkg/guard"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Diagnoses diagnoses.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) (*Domain, error) {
	fetcher, err := newFetcher(runtime)
	if err != nil {
		return nil, err
	}

	model := workflow.NewModel(&runtime.Agent)
	db := runtime.Database.Connection()

	captioner := workflow.NewCaptioner(
		runtime.Guard,
		guard.Command{
			Path: runtime.Captioner.Command,
			Args: runtime.Captioner.Args,
		},
		runtime.Captioner.Fallback,
		runtime.Logger,
	)

	wf, err := workflow.New(&workflow.Runtime{
		Fetcher:    fetcher,
		Describer:  captioner,
		Classifier: model,
		Judge:      model,
		Persister:  diagnoses.NewPersister(db),
		Logger:     runtime.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("workflow init failed: %w", err)
	}

	return &Domain{
		Diagnoses: diagnoses.New(db, wf, runtime.Logger, runtime.Pagination),
	}, nil
}

func newFetcher(runtime *Runtime) (workflow.Fetcher, error) {
	switch runtime.Source.Kind {
	case config.SourceBlob:
		if runtime.Storage == nil {
			return nil, fmt.Errorf("blob source requires storage")
		}
		return workflow.NewBlobSource(
			runtime.Guard,
			runtime.Storage,
			runtime.Source.KeyPattern,
			runtime.MaxImage,
			runtime.Logger,
		)
	default:
		return workflow.NewHTTPSource(
			runtime.Guard,
			runtime.Source.URLPattern,
			runtime.Logger,
		)
	}
}
