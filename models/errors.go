package models

import "errors"

var (
	ErrValidation          = errors.New("validation error")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrUpstream            = errors.New("upstream error")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrStore               = errors.New("store error")
)

// invalidIDError classifies as both ErrValidation and ErrNotFound: a malformed id can never
// reference an existing record.
type invalidIDError struct {
	kind string
	id   string
}

func (e *invalidIDError) Error() string { return "invalid " + e.kind + " id: " + e.id }

func (e *invalidIDError) Is(target error) bool {
	return target == ErrValidation || target == ErrNotFound
}

func InvalidID(kind, id string) error { return &invalidIDError{kind: kind, id: id} }
