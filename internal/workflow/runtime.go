package workflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Fetcher obtains the image bytes. ok is false when the image could not be
// obtained after the source's own retries.
type Fetcher interface {
	Fetch(ctx context.Context, imageID, credential string) (data []byte, ok bool)
}

// Describer captions an image. It always returns text, substituting a
// fallback when captioning fails or times out.
type Describer interface {
	Describe(ctx context.Context, image []byte) string
}

// Classifier decides whether a description depicts a plant.
type Classifier interface {
	Classify(ctx context.Context, description string) (bool, error)
}

// Judge assesses plant health from a description and the user's notes.
type Judge interface {
	Judge(ctx context.Context, description, userText string) (Judgment, error)
}

// Persister stores a completed diagnosis and returns its identifier.
type Persister interface {
	Persist(ctx context.Context, s State) (uuid.UUID, error)
}

// Runtime bundles the collaborators that pipeline steps require.
// It is constructed by higher-level composition code from Infrastructure and Domain systems.
type Runtime struct {
	Fetcher    Fetcher
	Describer  Describer
	Classifier Classifier
	Judge      Judge
	Persister  Persister
	Logger     *slog.Logger
}
