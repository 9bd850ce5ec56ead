package treatment

import (
	"fmt"
	"time"

	"github.com/IbkArotiba/AaroCare/internal/platform/sqlbridge"
)

// Plan statuses. A patient has at most one active plan; edits supersede it
// with a new version rather than mutating history.
const (
	StatusActive     = "active"
	StatusSuperseded = "superseded"
	StatusCancelled  = "cancelled"
)

// Plan is one version of a patient's treatment plan. Superseded and cancelled
// versions are kept forever; parent_plan_id links a version to the one it
// replaced.
type Plan struct {
	ID                     int        `json:"id"`
	PatientID              int        `json:"patient_id"`
	ParentPlanID           *int       `json:"parent_plan_id,omitempty"`
	VersionNumber          int        `json:"version_number"`
	CreatedBy              int        `json:"created_by"`
	Diagnosis              string     `json:"diagnosis"`
	TreatmentGoals         string     `json:"treatment_goals,omitempty"`
	Medications            string     `json:"medications,omitempty"`
	Procedures             string     `json:"procedures,omitempty"`
	DietaryRestrictions    string     `json:"dietary_restrictions,omitempty"`
	ActivityLevel          string     `json:"activity_level,omitempty"`
	FollowUpInstructions   string     `json:"follow_up_instructions,omitempty"`
	EstimatedDischargeDate string     `json:"estimated_discharge_date,omitempty"`
	Status                 string     `json:"status"`
	SupersededAt           *time.Time `json:"superseded_at,omitempty"`
	SupersededBy           *int       `json:"superseded_by,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// CreateRequest starts a patient's treatment plan at version 1.
type CreateRequest struct {
	Diagnosis              string `json:"diagnosis"`
	TreatmentGoals         string `json:"treatment_goals"`
	Medications            string `json:"medications"`
	Procedures             string `json:"procedures"`
	DietaryRestrictions    string `json:"dietary_restrictions"`
	ActivityLevel          string `json:"activity_level"`
	FollowUpInstructions   string `json:"follow_up_instructions"`
	EstimatedDischargeDate string `json:"estimated_discharge_date"`
}

func (r CreateRequest) Validate() error {
	if r.Diagnosis == "" {
		return fmt.Errorf("%w: diagnosis is required", ErrInvalid)
	}
	return nil
}

// UpdateRequest supersedes the active plan. Nil fields carry over from the
// version being replaced.
type UpdateRequest struct {
	Diagnosis              *string `json:"diagnosis"`
	TreatmentGoals         *string `json:"treatment_goals"`
	Medications            *string `json:"medications"`
	Procedures             *string `json:"procedures"`
	DietaryRestrictions    *string `json:"dietary_restrictions"`
	ActivityLevel          *string `json:"activity_level"`
	FollowUpInstructions   *string `json:"follow_up_instructions"`
	EstimatedDischargeDate *string `json:"estimated_discharge_date"`
}

func fromRow(r sqlbridge.Row) *Plan {
	return &Plan{
		ID:                     r.Int("id"),
		PatientID:              r.Int("patient_id"),
		ParentPlanID:           r.NullableInt("parent_plan_id"),
		VersionNumber:          r.Int("version_number"),
		CreatedBy:              r.Int("created_by"),
		Diagnosis:              r.String("diagnosis"),
		TreatmentGoals:         r.String("treatment_goals"),
		Medications:            r.String("medications"),
		Procedures:             r.String("procedures"),
		DietaryRestrictions:    r.String("dietary_restrictions"),
		ActivityLevel:          r.String("activity_level"),
		FollowUpInstructions:   r.String("follow_up_instructions"),
		EstimatedDischargeDate: r.String("estimated_discharge_date"),
		Status:                 r.String("status"),
		SupersededAt:           r.NullableTime("superseded_at"),
		SupersededBy:           r.NullableInt("superseded_by"),
		CreatedAt:              r.Time("created_at"),
		UpdatedAt:              r.Time("updated_at"),
	}
}
