// Package workflow implements the plant diagnosis pipeline:
// fetch → describe → classify (branch) → judge → persist.
package workflow

import "errors"

// Fatal-per-run error categories. Steps wrap their causes with one of these.
var (
	ErrMissingIdentity  = errors.New("state identity incomplete")
	ErrImageUnavailable = errors.New("image unavailable")
	ErrInvalidImage     = errors.New("invalid image")
	ErrInferenceFailed  = errors.New("inference failed")
	ErrPersistFailed    = errors.New("persist failed")
)

// Category returns a stable label for the fatal error category of err.
func Category(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrImageUnavailable):
		return "image_unavailable"
	case errors.Is(err, ErrInvalidImage):
		return "invalid_image"
	case errors.Is(err, ErrInferenceFailed):
		return "inference"
	case errors.Is(err, ErrPersistFailed):
		return "persistence"
	default:
		return "internal"
	}
}
