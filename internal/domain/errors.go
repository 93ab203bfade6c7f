package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrBuildingNotFound signals a missing building.
	ErrBuildingNotFound = errors.New("building not found")
	// ErrInvalidBuilding signals a building record that fails validation.
	ErrInvalidBuilding = errors.New("invalid building")
	// ErrInvalidRequest signals malformed search parameters.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidCandidate signals a stored building the ranking engine cannot rank
	// (empty name or coordinates out of range).
	ErrInvalidCandidate = errors.New("invalid candidate")

	// ErrRevisionConflict signals an optimistic locking conflict.
	ErrRevisionConflict = errors.New("revision conflict")
	// ErrInvalidImage signals an unsupported or undecodable image upload.
	ErrInvalidImage = errors.New("invalid image")
	// ErrImageTooLarge signals an image upload above the configured size.
	ErrImageTooLarge = errors.New("image too large")
	// ErrImageStorageDisabled signals that no image storage is configured.
	ErrImageStorageDisabled = errors.New("image storage disabled")
)

// RevisionConflictError wraps ErrRevisionConflict with the current resource revision.
type RevisionConflictError struct {
	CurrentRevision int
}

func (e *RevisionConflictError) Error() string {
	return fmt.Sprintf("%s: current revision is %d", ErrRevisionConflict.Error(), e.CurrentRevision)
}

func (e *RevisionConflictError) Unwrap() error { return ErrRevisionConflict }

// NewRevisionConflict creates a revision conflict error.
func NewRevisionConflict(currentRevision int) error {
	return &RevisionConflictError{CurrentRevision: currentRevision}
}
