package domain

import "errors"

// ErrTaskNotFound is returned when a task ID cannot be found in the store.
var ErrTaskNotFound = errors.New("task not found")

// ErrEmptyTitle is returned when a title is empty after trimming.
// Presentation layers treat it as a silent no-op.
var ErrEmptyTitle = errors.New("task title is empty")

// ErrInvalidTitle is returned when a title is too large or not valid UTF-8.
var ErrInvalidTitle = errors.New("task title is invalid")

// ErrCommitFailed wraps any error raised while writing to the backing store.
// Unlike validation errors it means the user's change was NOT saved.
var ErrCommitFailed = errors.New("changes not saved")

// IsValidation reports whether err is a title validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyTitle) || errors.Is(err, ErrInvalidTitle)
}
