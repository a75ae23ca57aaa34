package ingestion

import "errors"

var (
	// ErrLoaderRequired is returned when a backend loader is not provided.
	ErrLoaderRequired = errors.New("backend loader required")

	// ErrEncoderRequired is returned when an encoder is not provided.
	ErrEncoderRequired = errors.New("encoder required")

	// ErrInvalidMaxAttempts is returned when the retry count is not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

	// ErrLoadFailed is returned when the backend rejects a bulk load.
	ErrLoadFailed = errors.New("bulk load failed")
)
