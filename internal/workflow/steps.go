package workflow

import (
	"context"
	"fmt"

	"github.com/JaimeStill/verdant/pkg/formatting"
	"github.com/JaimeStill/verdant/pkg/pipeline"
)

// FetchStep downloads the image and verifies it decodes. An image that
// cannot be obtained or decoded fails the run.
func FetchStep(rt *Runtime) pipeline.Step[State] {
	return pipeline.Step[State]{
		Name: StepFetch,
		Run: func(ctx context.Context, s State) (State, error) {
			data, ok := rt.Fetcher.Fetch(ctx, s.ImageID, s.Credential)
			if !ok {
				return s, fmt.Errorf("%w: %s", ErrImageUnavailable, s.ImageID)
			}

			format, err := DecodeImage(data)
			if err != nil {
				return s, fmt.Errorf("%w: %w", ErrInvalidImage, err)
			}

			if err := s.Image.Set(data); err != nil {
				return s, err
			}
			if err := s.Format.Set(format); err != nil {
				return s, err
			}

			rt.Logger.InfoContext(
				ctx, "fetch step complete",
				"image_id", s.ImageID,
				"format", format,
				"size", formatting.FormatBytes(int64(len(data)), 1),
			)
			return s, nil
		},
	}
}

// DescribeStep captions the image. Captioning never fails the run.
func DescribeStep(rt *Runtime) pipeline.Step[State] {
	return pipeline.Step[State]{
		Name: StepDescribe,
		Run: func(ctx context.Context, s State) (State, error) {
			description := rt.Describer.Describe(ctx, s.Image.Value())

			if err := s.Description.Set(description); err != nil {
				return s, err
			}

			rt.Logger.InfoContext(ctx, "describe step complete", "image_id", s.ImageID)
			return s, nil
		},
	}
}

// ClassifyStep decides whether the image shows a plant and ends the run
// early when it does not.
func ClassifyStep(rt *Runtime) pipeline.Step[State] {
	return pipeline.Step[State]{
		Name: StepClassify,
		Run: func(ctx context.Context, s State) (State, error) {
			isPlant, err := rt.Classifier.Classify(ctx, s.Description.Value())
			if err != nil {
				return s, fmt.Errorf("%w: classify: %w", ErrInferenceFailed, err)
			}

			if err := s.IsPlant.Set(isPlant); err != nil {
				return s, err
			}

			rt.Logger.InfoContext(
				ctx, "classify step complete",
				"image_id", s.ImageID,
				"is_plant", isPlant,
			)
			return s, nil
		},
		Next: plantsOnly,
	}
}

// JudgeStep produces the health score, disease label and advice.
func JudgeStep(rt *Runtime) pipeline.Step[State] {
	return pipeline.Step[State]{
		Name: StepJudge,
		Run: func(ctx context.Context, s State) (State, error) {
			j, err := rt.Judge.Judge(ctx, s.Description.Value(), s.UserText)
			if err != nil {
				return s, fmt.Errorf("%w: judge: %w", ErrInferenceFailed, err)
			}

			if err := s.Score.Set(j.Score); err != nil {
				return s, err
			}
			if err := s.Disease.Set(j.Disease); err != nil {
				return s, err
			}
			if err := s.Advice.Set(j.Advice); err != nil {
				return s, err
			}

			rt.Logger.InfoContext(
				ctx, "judge step complete",
				"image_id", s.ImageID,
				"score", j.Score,
				"disease", j.Disease,
			)
			return s, nil
		},
	}
}

// PersistStep stores the completed diagnosis. It is never retried.
func PersistStep(rt *Runtime) pipeline.Step[State] {
	return pipeline.Step[State]{
		Name: StepPersist,
		Run: func(ctx context.Context, s State) (State, error) {
			id, err := rt.Persister.Persist(ctx, s)
			if err != nil {
				return s, fmt.Errorf("%w: %w", ErrPersistFailed, err)
			}

			if err := s.DiagnosisID.Set(id); err != nil {
				return s, err
			}

			rt.Logger.InfoContext(
				ctx, "persist step complete",
				"image_id", s.ImageID,
				"diagnosis_id", id,
			)
			return s, nil
		},
	}
}

func plantsOnly(s State) pipeline.Transition {
	if isPlant, ok := s.IsPlant.Get(); ok && !isPlant {
		return pipeline.Terminate()
	}
	return pipeline.Continue()
}
