package placement

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateAssignment is returned when a video is already placed in a loaded issue.
	ErrDuplicateAssignment = errors.New("video already assigned to an issue")

	// ErrItemNotFound is returned when an item id is not held by any loaded issue.
	ErrItemNotFound = errors.New("item not found")

	// ErrIssueNotFound is returned when an issue has not been loaded into the store.
	ErrIssueNotFound = errors.New("issue not found")

	// ErrVideoNotFound is returned when the video pool has no video with the requested id.
	ErrVideoNotFound = errors.New("video not found")

	// ErrNoLoader is returned by Reload when the store was built without a Loader.
	ErrNoLoader = errors.New("store has no loader")
)

// PersistenceError wraps a failure reported by the persistence collaborator.
// The in-memory state has already been updated when it is returned.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistenceFailure returns true if err wraps a PersistenceError.
func IsPersistenceFailure(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// IsDuplicateAssignment returns true if the error is an ErrDuplicateAssignment error.
func IsDuplicateAssignment(err error) bool {
	return errors.Is(err, ErrDuplicateAssignment)
}

// IsNotFound returns true for unknown items, issues and videos.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrIssueNotFound) || errors.Is(err, ErrVideoNotFound)
}
