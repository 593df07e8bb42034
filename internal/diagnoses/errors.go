package diagnoses

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/verdant/internal/workflow"
	"github.com/JaimeStill/verdant/pkg/repository"
)

// Domain errors for diagnosis operations.
var (
	ErrNotFound       = errors.New("diagnosis not found")
	ErrDuplicate      = errors.New("diagnosis already exists")
	ErrInvalidRecord  = errors.New("diagnosis rejected by the table constraints")
	ErrInvalidRequest = errors.New("image_id and user_text are required")
	ErrInvalidID      = errors.New("invalid diagnosis id")
	ErrNotPlant       = errors.New("the image does not show a plant")
	ErrUnauthorized   = errors.New("missing caller identity")
	ErrFailed         = errors.New("diagnosis failed")
)

// MapHTTPStatus maps diagnosis and workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotPlant), errors.Is(err, workflow.ErrInvalidImage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, workflow.ErrImageUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var tableErrors = repository.ErrorMap{
	NotFound:   ErrNotFound,
	Duplicate:  ErrDuplicate,
	Constraint: ErrInvalidRecord,
}

func isNotPlant(err error) bool {
	return errors.Is(err, ErrNotPlant)
}

// unwrapPublic reduces err to the sentinel that is safe to show callers.
func unwrapPublic(err error) error {
	for _, sentinel := range []error{
		ErrInvalidRequest,
		ErrInvalidID,
		ErrUnauthorized,
		ErrNotFound,
		workflow.ErrImageUnavailable,
		workflow.ErrInvalidImage,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return ErrFailed
}
