package account

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrInvalid marks request validation failures.
	ErrInvalid = errors.New("invalid request")
)

// Repository is the persistence surface for the staff directory.
type Repository interface {
	Create(ctx context.Context, u *User) (*User, error)
	GetByID(ctx context.Context, id int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	UpdateByEmail(ctx context.Context, email string, cols []string, vals []any) (*User, error)
}
