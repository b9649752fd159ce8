package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// setup
	ErrMalformedPayload = errors.New("malformed place payload")
	ErrMissingElement   = errors.New("required page element missing")

	// runtime
	ErrInvalidSort             = errors.New("invalid sort mode")
	ErrDistanceSortUnavailable = errors.New("distance sort needs a known location")
	ErrLocationUnsupported     = errors.New("positioning is not supported")
	ErrLocationPending         = errors.New("a location request is already in flight")
	ErrNoPendingLocation       = errors.New("no location request in flight")
	ErrUnknownPlace            = errors.New("unknown place")
)
