package domain

import "errors"

// Sentinel errors shared by stores, services and the HTTP layer. Wrap them
// with fmt.Errorf("...: %w", err) to add context; match with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
)
