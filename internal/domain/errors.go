package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrServerOffline indicates the homework server is unreachable
	ErrServerOffline = errors.New("homework server is unreachable")

	// ErrAuthFailed indicates the auth token was rejected
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrInvalidImageURL indicates an image URL that cannot be fetched
	ErrInvalidImageURL = errors.New("invalid image url")

	// ErrMissingAssignmentID indicates a homework without a student book id
	ErrMissingAssignmentID = errors.New("homework has no assignment id")

	// ErrAllFetchesFailed indicates that no assignment could be refreshed during a sync
	ErrAllFetchesFailed = errors.New("all problem fetches failed")
)
