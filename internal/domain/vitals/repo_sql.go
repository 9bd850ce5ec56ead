package vitals

import (
	"context"
	"fmt"
	"sort"

	"github.com/IbkArotiba/AaroCare/internal/platform/sqlbridge"
)

// SQLRepository persists vital signs through the SQL bridge.
type SQLRepository struct {
	client *sqlbridge.Client
}

func NewSQLRepository(client *sqlbridge.Client) *SQLRepository {
	return &SQLRepository{client: client}
}

func (r *SQLRepository) Create(ctx context.Context, v *VitalSign) (*VitalSign, error) {
	res, err := r.client.Query(ctx, `INSERT INTO vital_signs
		(patient_id, recorded_by, temperature, heart_rate, blood_pressure_systolic,
		 blood_pressure_diastolic, respiratory_rate, oxygen_saturation, pain_level,
		 notes, recorded_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING *`,
		[]any{
			v.PatientID, v.RecordedBy, v.Temperature, v.HeartRate, v.BloodPressureSystolic,
			v.BloodPressureDiastolic, v.RespiratoryRate, v.OxygenSaturation, v.PainLevel,
			v.Notes, v.RecordedAt, v.CreatedAt,
		})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, fmt.Errorf("insert returned no rows")
	}
	return fromRow(res.Rows[0]), nil
}

func (r *SQLRepository) ListByPatient(ctx context.Context, patientID int) ([]*VitalSign, error) {
	res, err := r.client.Query(ctx,
		`SELECT * FROM vital_signs WHERE patient_id = $1 ORDER BY recorded_at DESC`,
		[]any{patientID})
	if err != nil {
		return nil, err
	}
	return sorted(res.Rows), nil
}

func (r *SQLRepository) ListAll(ctx context.Context) ([]*VitalSign, error) {
	res, err := r.client.Query(ctx, `SELECT * FROM vital_signs ORDER BY recorded_at DESC`, nil)
	if err != nil {
		return nil, err
	}
	return sorted(res.Rows), nil
}

// sorted maps rows and orders newest first; the bridge ignores ORDER BY.
func sorted(rows []sqlbridge.Row) []*VitalSign {
	out := make([]*VitalSign, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	return out
}
