package workflow

import (
	"slices"

	"github.com/google/uuid"

	"github.com/JaimeStill/verdant/pkg/pipeline"
)

// Step names, in execution order.
const (
	StepFetch    = "fetch"
	StepDescribe = "describe"
	StepClassify = "classify"
	StepJudge    = "judge"
	StepPersist  = "persist"
)

// State is the value threaded through the diagnosis pipeline. The identity
// fields are set by NewState; every derived field is written once by the
// step that owns it.
type State struct {
	ImageID    string
	UserText   string
	Credential string
	Owner      string

	Image       pipeline.Field[[]byte]
	Format      pipeline.Field[string]
	Description pipeline.Field[string]
	IsPlant     pipeline.Field[bool]
	Score       pipeline.Field[float64]
	Disease     pipeline.Field[string]
	Advice      pipeline.Field[string]
	DiagnosisID pipeline.Field[uuid.UUID]
}

// NewState creates a State with only its identity fields populated.
func NewState(imageID, userText, credential, owner string) State {
	return State{
		ImageID:    imageID,
		UserText:   userText,
		Credential: credential,
		Owner:      owner,
	}
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	if img, ok := s.Image.Get(); ok {
		var f pipeline.Field[[]byte]
		f.Set(slices.Clone(img))
		s.Image = f
	}
	return s
}

// Judgment is the structured health assessment of a plant.
type Judgment struct {
	Score   float64 `json:"score"`
	Disease string  `json:"disease"`
	Advice  string  `json:"advice"`
}
