package treatment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IbkArotiba/AaroCare/internal/domain/account"
	"github.com/IbkArotiba/AaroCare/internal/domain/patient"
	"github.com/IbkArotiba/AaroCare/internal/platform/audit"
	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
	"github.com/IbkArotiba/AaroCare/internal/platform/db"
)

// UserLookup resolves the doctor who authored a plan version.
type UserLookup interface {
	GetByID(ctx context.Context, id int) (*account.User, error)
}

// PatientLookup resolves the patient a plan belongs to.
type PatientLookup interface {
	GetByID(ctx context.Context, id int) (*patient.Patient, error)
}

type Service struct {
	repo     Repository
	users    UserLookup
	patients PatientLookup
	tx       db.Transactor
	recorder audit.Recorder
}

func NewService(repo Repository, users UserLookup, patients PatientLookup, tx db.Transactor, recorder audit.Recorder) *Service {
	return &Service{repo: repo, users: users, patients: patients, tx: tx, recorder: recorder}
}

// Create starts a patient's plan history at version 1. A patient may hold at
// most one active plan; edits go through Update.
func (s *Service) Create(ctx context.Context, actor auth.Actor, patientID int, req CreateRequest, meta audit.RequestMeta) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetActiveByPatient(ctx, patientID); err == nil {
		return nil, ErrActivePlanExists
	} else if !errors.Is(err, ErrNoActivePlan) {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &Plan{
		PatientID:              patientID,
		VersionNumber:          1,
		CreatedBy:              actor.ID,
		Diagnosis:              req.Diagnosis,
		TreatmentGoals:         req.TreatmentGoals,
		Medications:            req.Medications,
		Procedures:             req.Procedures,
		DietaryRestrictions:    req.DietaryRestrictions,
		ActivityLevel:          req.ActivityLevel,
		FollowUpInstructions:   req.FollowUpInstructions,
		EstimatedDischargeDate: req.EstimatedDischargeDate,
		Status:                 StatusActive,
		CreatedAt:              now,
		UpdatedAt:              now,
	})
	if err != nil {
		return nil, fmt.Errorf("creating treatment plan: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:     actor.ID,
		PatientID:  &patientID,
		Action:     audit.ActionCreateTreatmentPlan,
		EntityType: "treatment_plan",
		EntityID:   &created.ID,
		NewValues:  created,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return created, nil
}

// Enriched joins a plan version with its patient and authoring doctor.
type Enriched struct {
	*Plan
	PatientName         string `json:"patient_name,omitempty"`
	MedicalRecordNumber string `json:"medical_record_number,omitempty"`
	RoomNumber          string `json:"room_number,omitempty"`
	DoctorName          string `json:"doctor_name,omitempty"`
	DoctorRole          string `json:"doctor_role,omitempty"`
}

// GetActive returns the patient's current plan, enriched.
func (s *Service) GetActive(ctx context.Context, patientID int) (*Enriched, error) {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	plan, err := s.repo.GetActiveByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	enriched := s.enrich(ctx, []*Plan{plan})
	return enriched[0], nil
}

// Update supersedes the active plan with a new version carrying the request
// overrides. The archive and the insert run in one transaction so a crash in
// between cannot leave the patient with zero or two active plans.
func (s *Service) Update(ctx context.Context, actor auth.Actor, patientID int, req UpdateRequest, meta audit.RequestMeta) (*Plan, error) {
	var current, next *Plan
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		current, err = s.repo.GetActiveByPatient(ctx, patientID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if _, err = s.repo.Update(ctx, current.ID,
			[]string{"status", "superseded_at", "superseded_by", "updated_at"},
			[]any{StatusSuperseded, now, actor.ID, now}); err != nil {
			return fmt.Errorf("superseding plan: %w", err)
		}

		next, err = s.repo.Create(ctx, &Plan{
			PatientID:              patientID,
			ParentPlanID:           &current.ID,
			VersionNumber:          current.VersionNumber + 1,
			CreatedBy:              actor.ID,
			Diagnosis:              override(req.Diagnosis, current.Diagnosis),
			TreatmentGoals:         override(req.TreatmentGoals, current.TreatmentGoals),
			Medications:            override(req.Medications, current.Medications),
			Procedures:             override(req.Procedures, current.Procedures),
			DietaryRestrictions:    override(req.DietaryRestrictions, current.DietaryRestrictions),
			ActivityLevel:          override(req.ActivityLevel, current.ActivityLevel),
			FollowUpInstructions:   override(req.FollowUpInstructions, current.FollowUpInstructions),
			EstimatedDischargeDate: override(req.EstimatedDischargeDate, current.EstimatedDischargeDate),
			Status:                 StatusActive,
			CreatedAt:              now,
			UpdatedAt:              now,
		})
		if err != nil {
			return fmt.Errorf("inserting new version: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:     actor.ID,
		PatientID:  &patientID,
		Action:     audit.ActionUpdateTreatmentPlan,
		EntityType: "treatment_plan",
		EntityID:   &next.ID,
		OldValues:  current,
		NewValues:  next,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return next, nil
}

// Cancel marks a plan cancelled. History rows are never deleted.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, patientID, planID int, meta audit.RequestMeta) (*Plan, error) {
	existing, err := s.repo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if existing.PatientID != patientID {
		return nil, ErrNotFound
	}

	cancelled, err := s.repo.Update(ctx, planID,
		[]string{"status", "updated_at"},
		[]any{StatusCancelled, time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("cancelling plan: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:     actor.ID,
		PatientID:  &patientID,
		Action:     audit.ActionCancelTreatmentPlan,
		EntityType: "treatment_plan",
		EntityID:   &planID,
		OldValues:  existing,
		NewValues:  cancelled,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return cancelled, nil
}

// ListAll returns every plan version across all patients, enriched, for the
// treatment overview dashboard.
func (s *Service) ListAll(ctx context.Context) ([]*Enriched, error) {
	plans, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing treatment plans: %w", err)
	}
	return s.enrich(ctx, plans), nil
}

func (s *Service) enrich(ctx context.Context, plans []*Plan) []*Enriched {
	doctors := make(map[int]*account.User)
	patients := make(map[int]*patient.Patient)
	out := make([]*Enriched, 0, len(plans))
	for _, pl := range plans {
		e := &Enriched{Plan: pl}
		p, ok := patients[pl.PatientID]
		if !ok {
			if got, err := s.patients.GetByID(ctx, pl.PatientID); err == nil {
				p = got
				patients[pl.PatientID] = p
			}
		}
		if p != nil {
			e.PatientName = p.FirstName + " " + p.LastName
			e.MedicalRecordNumber = p.MedicalRecordNumber
			e.RoomNumber = p.RoomNumber
		}
		u, ok := doctors[pl.CreatedBy]
		if !ok {
			if got, err := s.users.GetByID(ctx, pl.CreatedBy); err == nil {
				u = got
				doctors[pl.CreatedBy] = u
			}
		}
		if u != nil {
			e.DoctorName = u.FirstName + " " + u.LastName
			e.DoctorRole = u.Role
		}
		out = append(out, e)
	}
	return out
}

func override(v *string, fallback string) string {
	if v != nil {
		return *v
	}
	return fallback
}
