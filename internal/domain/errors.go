package domain

import "errors"

var (
	// load errors; each halts the dashboard until the next successful reload
	ErrFetchFailed   = errors.New("reviews: fetch failed")
	ErrInvalidFormat = errors.New("reviews: invalid format")
	ErrParseFailure  = errors.New("reviews: parse failure")

	ErrNotLoaded       = errors.New("reviews: dataset not loaded")
	ErrInvalidRange    = errors.New("reviews: start year must be less than or equal to end year")
	ErrSessionNotFound = errors.New("reviews: session not found")

	// ErrEmptySeries is an expected outcome: no rows for the trend behavior.
	ErrEmptySeries = errors.New("reviews: empty series")
)

// IsLoadError reports whether err is one of the load failures.
func IsLoadError(err error) bool {
	return errors.Is(err, ErrFetchFailed) || errors.Is(err, ErrInvalidFormat) || errors.Is(err, ErrParseFailure)
}
