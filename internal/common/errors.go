// Package common defines shared constants and sentinel errors used across
// the sampleapp layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorPersistence   = errors.New("db error")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Input rejected before any mutation.
	ErrorValidation = errors.New("validation error")

	// Remember token errors.
	ErrInvalidToken   = errors.New("invalid token")
	ErrSessionRevoked = errors.New("session revoked")
)
