package patient

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no patient matches the given id.
	ErrNotFound = errors.New("patient not found")
	// ErrInvalid marks request validation failures.
	ErrInvalid = errors.New("invalid request")
)

// Repository is the persistence surface for patients.
type Repository interface {
	Create(ctx context.Context, p *Patient) (*Patient, error)
	GetByID(ctx context.Context, id int) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
	Update(ctx context.Context, id int, cols []string, vals []any) (*Patient, error)
}
