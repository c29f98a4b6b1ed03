package errors

import "errors"

// Domain errors
var (
	// Input errors
	ErrMissingURL = errors.New("url is required")
	ErrInvalidURL = errors.New("invalid url")

	// Fetch errors
	ErrAccessDenied = errors.New("target refused access")
	ErrFetchFailed  = errors.New("failed to fetch target")

	// History errors
	ErrScanNotFound = errors.New("scan not found")
)
