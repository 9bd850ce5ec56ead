package careteam

import (
	"context"
	"fmt"
	"time"

	"github.com/IbkArotiba/AaroCare/internal/domain/account"
	"github.com/IbkArotiba/AaroCare/internal/domain/patient"
	"github.com/IbkArotiba/AaroCare/internal/platform/audit"
	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
)

// UserLookup resolves staff identity for the enriched listings.
type UserLookup interface {
	GetByID(ctx context.Context, id int) (*account.User, error)
}

// PatientLookup resolves the patient a team is assigned to.
type PatientLookup interface {
	GetByID(ctx context.Context, id int) (*patient.Patient, error)
}

type Service struct {
	repo     Repository
	users    UserLookup
	patients PatientLookup
	recorder audit.Recorder
}

func NewService(repo Repository, users UserLookup, patients PatientLookup, recorder audit.Recorder) *Service {
	return &Service{repo: repo, users: users, patients: patients, recorder: recorder}
}

// Assign adds a staff member to a patient's care team.
func (s *Service) Assign(ctx context.Context, actor auth.Actor, patientID int, req AssignRequest, meta audit.RequestMeta) (*Member, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &Member{
		PatientID:  patientID,
		UserID:     req.UserID,
		RoleInCare: req.RoleInCare,
		IsActive:   true,
		AssignedBy: actor.ID,
		AssignedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("assigning care team member: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:     actor.ID,
		PatientID:  &patientID,
		Action:     audit.ActionAssignCareTeam,
		EntityType: "care_team",
		EntityID:   &created.ID,
		NewValues:  created,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return created, nil
}

// Enriched joins an assignment with its staff member and patient.
type Enriched struct {
	*Member
	StaffName           string `json:"staff_name,omitempty"`
	StaffEmail          string `json:"staff_email,omitempty"`
	StaffRole           string `json:"staff_role,omitempty"`
	StaffDepartment     string `json:"staff_department,omitempty"`
	PatientName         string `json:"patient_name,omitempty"`
	MedicalRecordNumber string `json:"medical_record_number,omitempty"`
}

// ListByPatient returns a patient's active assignments with staff identity.
func (s *Service) ListByPatient(ctx context.Context, patientID int) ([]*Enriched, error) {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	members, err := s.repo.ListActiveByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("listing care team: %w", err)
	}
	return s.enrich(ctx, members), nil
}

// ListAll returns every active assignment across all patients.
func (s *Service) ListAll(ctx context.Context) ([]*Enriched, error) {
	members, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing care teams: %w", err)
	}
	return s.enrich(ctx, members), nil
}

func (s *Service) enrich(ctx context.Context, members []*Member) []*Enriched {
	staff := make(map[int]*account.User)
	patients := make(map[int]*patient.Patient)
	out := make([]*Enriched, 0, len(members))
	for _, m := range members {
		e := &Enriched{Member: m}
		u, ok := staff[m.UserID]
		if !ok {
			if got, err := s.users.GetByID(ctx, m.UserID); err == nil {
				u = got
				staff[m.UserID] = u
			}
		}
		if u != nil {
			e.StaffName = u.FirstName + " " + u.LastName
			e.StaffEmail = u.Email
			e.StaffRole = u.Role
			e.StaffDepartment = u.Department
		}
		p, ok := patients[m.PatientID]
		if !ok {
			if got, err := s.patients.GetByID(ctx, m.PatientID); err == nil {
				p = got
				patients[m.PatientID] = p
			}
		}
		if p != nil {
			e.PatientName = p.FirstName + " " + p.LastName
			e.MedicalRecordNumber = p.MedicalRecordNumber
		}
		out = append(out, e)
	}
	return out
}

// getOwned loads a member and checks it belongs to the patient; a member id
// under another patient reads as not found.
func (s *Service) getOwned(ctx context.Context, patientID, memberID int) (*Member, error) {
	m, err := s.repo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m.PatientID != patientID {
		return nil, ErrNotFound
	}
	return m, nil
}

// UpdateRole changes a member's role on the team and reactivates the row,
// matching the original behavior of role edits.
func (s *Service) UpdateRole(ctx context.Context, actor auth.Actor, patientID, memberID int, req UpdateRoleRequest, meta audit.RequestMeta) (*Member, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.getOwned(ctx, patientID, memberID)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, memberID,
		[]string{"role_in_care", "is_active", "updated_at"},
		[]any{req.RoleInCare, true, time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("updating care team role: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:     actor.ID,
		PatientID:  &existing.PatientID,
		Action:     audit.ActionUpdateCareTeamRole,
		EntityType: "care_team",
		EntityID:   &memberID,
		OldValues:  existing,
		NewValues:  updated,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return updated, nil
}

// Remove soft-deletes an assignment. Removing a member that is already
// inactive fails and writes no audit entry.
func (s *Service) Remove(ctx context.Context, actor auth.Actor, patientID, memberID int, meta audit.RequestMeta) (*Member, error) {
	existing, err := s.getOwned(ctx, patientID, memberID)
	if err != nil {
		return nil, err
	}
	if !existing.IsActive {
		return nil, ErrAlreadyInactive
	}

	now := time.Now().UTC()
	removed, err := s.repo.Update(ctx, memberID,
		[]string{"is_active", "removed_at", "updated_at"},
		[]any{false, now, now})
	if err != nil {
		return nil, fmt.Errorf("removing care team member: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:     actor.ID,
		PatientID:  &existing.PatientID,
		Action:     audit.ActionRemoveCareTeamMember,
		EntityType: "care_team",
		EntityID:   &memberID,
		OldValues:  existing,
		NewValues:  removed,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return removed, nil
}

// IsAssigned reports whether the user holds an active assignment for the
// patient. Satisfies the auth package's care-team checker.
func (s *Service) IsAssigned(ctx context.Context, userID, patientID int) (bool, error) {
	members, err := s.repo.ListActiveByPatient(ctx, patientID)
	if err != nil {
		return false, err
	}
	for _, m := range members {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}
