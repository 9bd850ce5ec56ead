package notes

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no note matches the given id.
	ErrNotFound = errors.New("note not found")
	// ErrInvalid marks request validation failures.
	ErrInvalid = errors.New("invalid request")
	// ErrVersionConflict means the caller updated from a stale version.
	ErrVersionConflict = errors.New("note was modified by someone else")
	// ErrLocked blocks edits to a locked note.
	ErrLocked = errors.New("note is locked")
	// ErrAlreadyLocked rejects locking a locked note.
	ErrAlreadyLocked = errors.New("note is already locked")
	// ErrNotLocked rejects unlocking an unlocked note.
	ErrNotLocked = errors.New("note is not locked")
)

// Repository is the persistence surface for patient notes.
type Repository interface {
	Create(ctx context.Context, n *Note) (*Note, error)
	GetByID(ctx context.Context, id int) (*Note, error)
	// ListByPatient returns a patient's notes, newest first.
	ListByPatient(ctx context.Context, patientID int) ([]*Note, error)
	ListAll(ctx context.Context) ([]*Note, error)
	ListByPriority(ctx context.Context, priority string) ([]*Note, error)
	Update(ctx context.Context, id int, cols []string, vals []any) (*Note, error)
	Delete(ctx context.Context, id int) error
}
