// Package audit writes the append-only audit trail. Every mutating clinical
// operation records who did what to which entity; audit failures are logged
// and never bubble up to fail the operation itself.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/IbkArotiba/AaroCare/internal/platform/sqlbridge"
)

// Actions recorded in the trail.
const (
	ActionCreatePatient        = "CREATE_PATIENT"
	ActionUpdatePatient        = "UPDATE_PATIENT"
	ActionDischargePatient     = "DISCHARGE_PATIENT"
	ActionGetPatients          = "GET_PATIENTS"
	ActionViewVitals           = "VIEW_VITALS"
	ActionRecordVitals         = "RECORD_VITALS"
	ActionViewVitalsHistory    = "VIEW_VITALS_HISTORY"
	ActionCreateNote           = "CREATE_NOTE"
	ActionUpdateNote           = "UPDATE_NOTE"
	ActionDeleteNote           = "DELETE_NOTE"
	ActionLockNote             = "LOCK_NOTE"
	ActionUnlockNote           = "UNLOCK_NOTE"
	ActionAssignCareTeam       = "ASSIGN_CARE_TEAM"
	ActionUpdateCareTeamRole   = "UPDATE_CARE_TEAM_ROLE"
	ActionRemoveCareTeamMember = "REMOVE_CARE_TEAM_MEMBER"
	ActionCreateTreatmentPlan  = "CREATE_TREATMENT_PLAN"
	ActionUpdateTreatmentPlan  = "UPDATE_TREATMENT_PLAN"
	ActionCancelTreatmentPlan  = "CANCEL_TREATMENT_PLAN"
	ActionRegisterUser         = "REGISTER_USER"
	ActionLogin                = "LOGIN"
	ActionChangePassword       = "CHANGE_PASSWORD"
)

// Entry is one audit record. OldValues and NewValues are marshaled to JSON
// before storage; nil means no snapshot.
type Entry struct {
	UserID     int
	PatientID  *int
	Action     string
	EntityType string
	EntityID   *int
	OldValues  any
	NewValues  any
	IPAddress  string
	UserAgent  string
	SessionID  *string
}

// RequestMeta is the request-level context handlers hand to services so
// business-action entries carry the caller's address.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Recorder accepts audit entries. Implementations must not fail the calling
// operation.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// SQLRecorder persists entries through the SQL bridge.
type SQLRecorder struct {
	client *sqlbridge.Client
	logger zerolog.Logger
}

func NewSQLRecorder(client *sqlbridge.Client, logger zerolog.Logger) *SQLRecorder {
	return &SQLRecorder{client: client, logger: logger}
}

const insertStatement = `INSERT INTO audit_logs
	(user_id, patient_id, action, entity_type, entity_id, old_values, new_values, ip_address, user_agent, session_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Record writes the entry. Failures are logged, not returned; losing an audit
// row must never roll back the clinical change it describes.
func (r *SQLRecorder) Record(ctx context.Context, e Entry) {
	params := []any{
		e.UserID,
		e.PatientID,
		e.Action,
		e.EntityType,
		e.EntityID,
		marshalSnapshot(e.OldValues),
		marshalSnapshot(e.NewValues),
		e.IPAddress,
		e.UserAgent,
		e.SessionID,
		time.Now().UTC(),
	}
	if _, err := r.client.Query(ctx, insertStatement, params); err != nil {
		r.logger.Error().Err(err).
			Str("action", e.Action).
			Int("user_id", e.UserID).
			Msg("audit record failed")
	}
}

func marshalSnapshot(v any) any {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(b)
}

// NopRecorder discards entries; used in tests.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Entry) {}
