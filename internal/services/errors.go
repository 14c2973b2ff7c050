package services

import "errors"

// Sentinel errors returned by the service layer. Handlers translate these
// into HTTP status codes; anything else surfaces as a 500.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("operation not permitted")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrOwnProperty        = errors.New("cannot inquire about own property")
	ErrInvalidInput       = errors.New("invalid input")
)
