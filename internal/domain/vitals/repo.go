package vitals

import (
	"context"
	"errors"
)

var (
	// ErrNoReadings is returned when a patient has no recorded vitals.
	ErrNoReadings = errors.New("no vital signs recorded for patient")
	// ErrInvalid marks request validation failures.
	ErrInvalid = errors.New("invalid request")
)

// Repository is the persistence surface for vital signs.
type Repository interface {
	Create(ctx context.Context, v *VitalSign) (*VitalSign, error)
	// ListByPatient returns readings newest first.
	ListByPatient(ctx context.Context, patientID int) ([]*VitalSign, error)
	ListAll(ctx context.Context) ([]*VitalSign, error)
}
