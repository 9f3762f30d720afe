package bundle

import "errors"

var (
	// ErrRootInvalid is returned when the traversal root is missing or not a directory.
	ErrRootInvalid = errors.New("root invalid")

	// ErrOutputUnavailable is returned when the bundle cannot be created or written.
	ErrOutputUnavailable = errors.New("output unavailable")
)
