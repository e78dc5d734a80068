package domain

import "errors"

// Detection failures are the only fatal errors in the pipeline; everything
// about the target's own health travels as typed result data.
var (
	ErrNotFound          = errors.New("project path not found")
	ErrNotDirectory      = errors.New("project path is not a directory")
	ErrUnsupportedSource = errors.New("unsupported project source")
)
