package patient

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/IbkArotiba/AaroCare/internal/platform/audit"
	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
)

// ErrAlreadyDischarged guards the one-way discharge transition.
var ErrAlreadyDischarged = errors.New("patient is already discharged")

type Service struct {
	repo     Repository
	recorder audit.Recorder
}

func NewService(repo Repository, recorder audit.Recorder) *Service {
	return &Service{repo: repo, recorder: recorder}
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, req CreateRequest, meta audit.RequestMeta) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Patient{
		MedicalRecordNumber:   generateMRN(now),
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		DateOfBirth:           req.DateOfBirth,
		Gender:                req.Gender,
		Phone:                 req.Phone,
		Email:                 req.Email,
		Address:               req.Address,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
		BloodType:             req.BloodType,
		Allergies:             req.Allergies,
		Status:                StatusActive,
		RoomNumber:            req.RoomNumber,
		Department:            req.Department,
		PrimaryDiagnosis:      req.PrimaryDiagnosis,
		AdmissionDate:         &now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:     actor.ID,
		PatientID:  &created.ID,
		Action:     audit.ActionCreatePatient,
		EntityType: "patient",
		EntityID:   &created.ID,
		NewValues:  created,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// List applies the filters in memory over the full patient set.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]*Patient, error) {
	patients, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	if filters == (ListFilters{}) {
		return patients, nil
	}

	matched := make([]*Patient, 0, len(patients))
	for _, p := range patients {
		if filters.Status != "" && p.Status != filters.Status {
			continue
		}
		if filters.Room != "" && p.RoomNumber != filters.Room {
			continue
		}
		if filters.Name != "" {
			name := strings.ToLower(p.FirstName + " " + p.LastName)
			if !strings.Contains(name, strings.ToLower(filters.Name)) {
				continue
			}
		}
		if filters.Diagnosis != "" &&
			!strings.Contains(strings.ToLower(p.PrimaryDiagnosis), strings.ToLower(filters.Diagnosis)) {
			continue
		}
		matched = append(matched, p)
	}
	return matched, nil
}

func (s *Service) Update(ctx context.Context, actor auth.Actor, id int, req UpdateRequest, meta audit.RequestMeta) (*Patient, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cols, vals := req.Fields()
	cols = append(cols, "updated_at")
	vals = append(vals, time.Now().UTC())

	updated, err := s.repo.Update(ctx, id, cols, vals)
	if err != nil {
		return nil, fmt.Errorf("updating patient: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:     actor.ID,
		PatientID:  &id,
		Action:     audit.ActionUpdatePatient,
		EntityType: "patient",
		EntityID:   &id,
		OldValues:  existing,
		NewValues:  updated,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return updated, nil
}

// Discharge moves the patient to discharged. Discharging twice is rejected
// so the original discharge timestamp is never overwritten.
func (s *Service) Discharge(ctx context.Context, actor auth.Actor, id int, meta audit.RequestMeta) (*Patient, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == StatusDischarged {
		return nil, ErrAlreadyDischarged
	}

	now := time.Now().UTC()
	updated, err := s.repo.Update(ctx, id,
		[]string{"status", "discharge_date", "updated_at"},
		[]any{StatusDischarged, now, now})
	if err != nil {
		return nil, fmt.Errorf("discharging patient: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:     actor.ID,
		PatientID:  &id,
		Action:     audit.ActionDischargePatient,
		EntityType: "patient",
		EntityID:   &id,
		OldValues:  existing,
		NewValues:  updated,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return updated, nil
}

// generateMRN builds a record number unique enough for a single facility.
func generateMRN(now time.Time) string {
	return fmt.Sprintf("MRN%d%03d", now.UnixMilli(), rand.Intn(1000))
}
