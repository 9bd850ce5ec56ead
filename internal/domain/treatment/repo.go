package treatment

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no plan matches.
	ErrNotFound = errors.New("treatment plan not found")
	// ErrNoActivePlan is returned when a patient has no active plan.
	ErrNoActivePlan = errors.New("no active treatment plan found for this patient")
	// ErrInvalid marks request validation failures.
	ErrInvalid = errors.New("invalid request")
	// ErrActivePlanExists rejects starting a second active plan.
	ErrActivePlanExists = errors.New("patient already has an active treatment plan")
)

// Repository is the persistence surface for treatment plan versions.
type Repository interface {
	Create(ctx context.Context, p *Plan) (*Plan, error)
	GetByID(ctx context.Context, id int) (*Plan, error)
	// GetActiveByPatient returns the single status=active plan, ErrNoActivePlan
	// when the patient has none.
	GetActiveByPatient(ctx context.Context, patientID int) (*Plan, error)
	ListAll(ctx context.Context) ([]*Plan, error)
	Update(ctx context.Context, id int, cols []string, vals []any) (*Plan, error)
}
