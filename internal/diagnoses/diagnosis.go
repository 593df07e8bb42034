// Package diagnoses implements the plant diagnosis domain: running the
// diagnosis workflow for a caller, storing its results, and serving them
// back scoped to their owner.
package diagnoses

import (
	"time"

	"github.com/google/uuid"
)

// Diagnosis is a stored plant health assessment.
type Diagnosis struct {
	ID          uuid.UUID `json:"id"`
	ImageID     string    `json:"image_id"`
	UserText    string    `json:"user_text"`
	Description string    `json:"description"`
	Score       float64   `json:"score"`
	Disease     string    `json:"disease"`
	Advice      string    `json:"advice"`
	CreatedAt   time.Time `json:"created_at"`
}

// DiagnoseCommand is the body of a diagnosis request.
type DiagnoseCommand struct {
	ImageID  string `json:"image_id"`
	UserText string `json:"user_text"`
}

// NotPlantResponse is returned when the image does not show a plant.
type NotPlantResponse struct {
	ImageID  string `json:"image_id"`
	UserText string `json:"user_text"`
	Error    string `json:"error"`
}
