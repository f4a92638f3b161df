package models

import "errors"

var (
	// ErrInvalidInput is returned for empty or malformed input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPersistence is returned when the datastore rejects a read or write.
	ErrPersistence = errors.New("persistence failure")

	// ErrUpstreamUnavailable marks a provider failure. Provider chains absorb it;
	// it never reaches pipeline callers.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
