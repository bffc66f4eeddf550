package models

import "errors"

// Domain-level sentinel errors. These carry no HTTP-specific information;
// the API layer maps them to status codes with errors.Is.

var (
	// ErrInvalidImage indicates the supplied payload could not be decoded
	// as an image.
	ErrInvalidImage = errors.New("invalid image")

	// ErrMissingField indicates a required request field was absent.
	ErrMissingField = errors.New("missing required field")

	// ErrSessionNotFound indicates the referenced session id has no record.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUserNotFound indicates no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists indicates a registration conflict on email.
	ErrUserExists = errors.New("user already exists")

	// ErrNoDetections indicates analysis found zero faces while the caller
	// requested strict detection.
	ErrNoDetections = errors.New("no emotions detected")

	// ErrAnalysisTimeout indicates the vision analysis call exceeded its
	// deadline. Not retried; reported to the caller.
	ErrAnalysisTimeout = errors.New("analysis timed out")

	// ErrAnalysisFailed indicates the vision capability errored in a way
	// that could not be softened to an empty result.
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrPersistence indicates a write to the session store failed.
	ErrPersistence = errors.New("persistence failure")

	// ErrImageEncode indicates the annotated frame could not be encoded.
	ErrImageEncode = errors.New("image encode failure")
)
