package careteam

import (
	"fmt"
	"time"

	"github.com/IbkArotiba/AaroCare/internal/platform/sqlbridge"
)

// Roles a member can hold on a patient's care team.
const (
	RolePrimaryDoctor    = "primary_doctor"
	RoleConsultingDoctor = "consulting_doctor"
	RolePrimaryNurse     = "primary_nurse"
	RoleNurse            = "nurse"
)

var validCareRoles = map[string]bool{
	RolePrimaryDoctor:    true,
	RoleConsultingDoctor: true,
	RolePrimaryNurse:     true,
	RoleNurse:            true,
}

// Member maps to the care_teams table: one staff assignment to one patient.
// Removal is a soft delete; is_active=false rows stay for the record.
type Member struct {
	ID         int        `json:"id"`
	PatientID  int        `json:"patient_id"`
	UserID     int        `json:"user_id"`
	RoleInCare string     `json:"role_in_care"`
	IsActive   bool       `json:"is_active"`
	AssignedBy int        `json:"assigned_by"`
	AssignedAt time.Time  `json:"assigned_at"`
	RemovedAt  *time.Time `json:"removed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// AssignRequest adds a staff member to a patient's care team.
type AssignRequest struct {
	UserID     int    `json:"user_id"`
	RoleInCare string `json:"role_in_care"`
}

func (r AssignRequest) Validate() error {
	if r.UserID == 0 {
		return fmt.Errorf("%w: user_id is required", ErrInvalid)
	}
	if !validCareRoles[r.RoleInCare] {
		return fmt.Errorf("%w: role_in_care must be one of primary_doctor, consulting_doctor, primary_nurse, nurse", ErrInvalid)
	}
	return nil
}

// UpdateRoleRequest changes a member's role on the team.
type UpdateRoleRequest struct {
	RoleInCare string `json:"role_in_care"`
}

func (r UpdateRoleRequest) Validate() error {
	if !validCareRoles[r.RoleInCare] {
		return fmt.Errorf("%w: role_in_care must be one of primary_doctor, consulting_doctor, primary_nurse, nurse", ErrInvalid)
	}
	return nil
}

func fromRow(r sqlbridge.Row) *Member {
	return &Member{
		ID:         r.Int("id"),
		PatientID:  r.Int("patient_id"),
		UserID:     r.Int("user_id"),
		RoleInCare: r.String("role_in_care"),
		IsActive:   r.Bool("is_active"),
		AssignedBy: r.Int("assigned_by"),
		AssignedAt: r.Time("assigned_at"),
		RemovedAt:  r.NullableTime("removed_at"),
		CreatedAt:  r.Time("created_at"),
		UpdatedAt:  r.Time("updated_at"),
	}
}
