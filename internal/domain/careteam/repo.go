package careteam

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no assignment matches.
	ErrNotFound = errors.New("care team member not found")
	// ErrInvalid marks request validation failures.
	ErrInvalid = errors.New("invalid request")
	// ErrAlreadyInactive rejects removing a member twice.
	ErrAlreadyInactive = errors.New("care team member is already inactive")
)

// Repository is the persistence surface for care-team assignments.
type Repository interface {
	Create(ctx context.Context, m *Member) (*Member, error)
	GetByID(ctx context.Context, id int) (*Member, error)
	// ListActiveByPatient returns the active assignments for one patient.
	ListActiveByPatient(ctx context.Context, patientID int) ([]*Member, error)
	ListAll(ctx context.Context) ([]*Member, error)
	Update(ctx context.Context, id int, cols []string, vals []any) (*Member, error)
}
