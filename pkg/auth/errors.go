package auth

import "errors"

var (
	// ErrMissingToken indicates the request carried no bearer token.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken indicates the token failed verification.
	ErrInvalidToken = errors.New("invalid bearer token")
	// ErrMissingSubject indicates a verified token without a sub claim.
	ErrMissingSubject = errors.New("token has no subject")
	// ErrDiscovery indicates the issuer's discovery document could not be read.
	ErrDiscovery = errors.New("issuer discovery failed")
)
