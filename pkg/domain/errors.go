package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidData is returned when a fetched result does not have the expected shape.
var ErrInvalidData = errors.New("invalid data")

// ErrNoBaseQuery is returned when a fetch is requested without a base query.
var ErrNoBaseQuery = errors.New("no base query set")

// ErrFixtureNotFound is returned by in-memory fetchers when no result matches a query.
var ErrFixtureNotFound = errors.New("no result registered for query")

// ErrUnknownCommand is returned by the console for unrecognised input.
var ErrUnknownCommand = errors.New("unknown command")

// FetchError is returned when the query server answers with a non-success status.
type FetchError struct {
	StatusCode int
	Body       string
}

func (e *FetchError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("query server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("query server returned status %d: %s", e.StatusCode, e.Body)
}

// ErrCacheMiss is returned by result caches when no entry exists for a query.
var ErrCacheMiss = errors.New("cache miss")

// ErrNoServer is returned by the default fetcher when no query server is configured.
var ErrNoServer = errors.New("no query server configured")
