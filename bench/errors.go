package bench

import "errors"

var (
	// ErrNoQueries is returned when a run is given no queries.
	ErrNoQueries = errors.New("no queries to run")

	// ErrUnexpectedStatus is returned for an HTTP status other than 200 or 404.
	ErrUnexpectedStatus = errors.New("unexpected response status")
)
