package model

import "errors"

var (
	// Session related errors
	ErrMalformedCredential = errors.New("malformed credential")
	ErrExpired             = errors.New("credential expired")
	ErrNoSession           = errors.New("no active session")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Resource related errors
	ErrValidation       = errors.New("validation failed")
	ErrMutationInFlight = errors.New("mutation already in flight")
	ErrNotConfirmed     = errors.New("deletion not confirmed")
	ErrItemNotFound     = errors.New("item not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
