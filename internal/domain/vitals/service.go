package vitals

import (
	"context"
	"fmt"
	"time"

	"github.com/IbkArotiba/AaroCare/internal/domain/patient"
	"github.com/IbkArotiba/AaroCare/internal/platform/audit"
	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
)

// AlertPublisher fans a critical-reading alert out to a department.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, department string, alert any)
}

// PatientLookup resolves the patient a reading belongs to.
type PatientLookup interface {
	GetByID(ctx context.Context, id int) (*patient.Patient, error)
}

type Service struct {
	repo     Repository
	patients PatientLookup
	recorder audit.Recorder
	alerts   AlertPublisher
}

func NewService(repo Repository, patients PatientLookup, recorder audit.Recorder, alerts AlertPublisher) *Service {
	return &Service{repo: repo, patients: patients, recorder: recorder, alerts: alerts}
}

// Record appends a reading. A reading that classifies as critical raises a
// newAlert in the patient's department room.
func (s *Service) Record(ctx context.Context, actor auth.Actor, patientID int, req RecordRequest, meta audit.RequestMeta) (*VitalSign, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	v := &VitalSign{
		PatientID:              patientID,
		RecordedBy:             actor.ID,
		Temperature:            req.Temperature,
		HeartRate:              req.HeartRate,
		BloodPressureSystolic:  req.BloodPressureSystolic,
		BloodPressureDiastolic: req.BloodPressureDiastolic,
		RespiratoryRate:        req.RespiratoryRate,
		OxygenSaturation:       req.OxygenSaturation,
		PainLevel:              req.PainLevel,
		Notes:                  req.Notes,
		RecordedAt:             now,
		CreatedAt:              now,
	}

	created, err := s.repo.Create(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("recording vitals: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:     actor.ID,
		PatientID:  &patientID,
		Action:     audit.ActionRecordVitals,
		EntityType: "vital_signs",
		EntityID:   &created.ID,
		NewValues:  created,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})

	if Classify(created) == StatusCritical && s.alerts != nil {
		s.alerts.PublishAlert(ctx, p.Department, map[string]any{
			"patient_id":   patientID,
			"patient_name": p.FirstName + " " + p.LastName,
			"room_number":  p.RoomNumber,
			"severity":     StatusCritical,
			"vital_id":     created.ID,
			"recorded_at":  created.RecordedAt,
		})
	}

	return created, nil
}

// List returns a patient's readings, newest first, optionally bounded to the
// given day (YYYY-MM-DD).
func (s *Service) List(ctx context.Context, patientID int, date string) ([]*VitalSign, error) {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	readings, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("listing vitals: %w", err)
	}
	if date == "" {
		return readings, nil
	}

	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalid)
	}
	var filtered []*VitalSign
	for _, v := range readings {
		if v.RecordedAt.UTC().Truncate(24 * time.Hour).Equal(day) {
			filtered = append(filtered, v)
		}
	}
	return filtered, nil
}

// Enriched is a reading joined with the patient it belongs to.
type Enriched struct {
	*VitalSign
	PatientName string `json:"patient_name"`
	RoomNumber  string `json:"room_number,omitempty"`
	Department  string `json:"department,omitempty"`
	Status      string `json:"status"`
}

// ListAll returns every reading enriched with patient identity, for the
// monitoring dashboard.
func (s *Service) ListAll(ctx context.Context) ([]*Enriched, error) {
	readings, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing vitals: %w", err)
	}

	patients := make(map[int]*patient.Patient)
	out := make([]*Enriched, 0, len(readings))
	for _, v := range readings {
		p, ok := patients[v.PatientID]
		if !ok {
			p, err = s.patients.GetByID(ctx, v.PatientID)
			if err != nil {
				continue // orphaned reading; skip rather than fail the dashboard
			}
			patients[v.PatientID] = p
		}
		out = append(out, &Enriched{
			VitalSign:   v,
			PatientName: p.FirstName + " " + p.LastName,
			RoomNumber:  p.RoomNumber,
			Department:  p.Department,
			Status:      Classify(v),
		})
	}
	return out, nil
}
