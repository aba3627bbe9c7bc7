package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNoVideo           = errors.New("no video loaded")
	ErrNotReady          = errors.New("video metadata not loaded")
	ErrMalformedSettings = errors.New("malformed settings document")
)
