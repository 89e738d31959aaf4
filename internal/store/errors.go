package store

import "errors"

// Domain errors returned by store operations. Handlers map these to HTTP
// status codes with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyCompleted   = errors.New("assignment already completed")
	ErrNotCompleted       = errors.New("assignment is not completed")
	ErrPhotoRequired      = errors.New("photo verification required")
	ErrOutOfRange         = errors.New("reorder target out of range")
	ErrInvalidPermutation = errors.New("id list is not a permutation of the group's chores")
)
