package vitals

import (
	"fmt"
	"time"

	"github.com/IbkArotiba/AaroCare/internal/platform/sqlbridge"
)

// Patient status classifications derived from a reading.
const (
	StatusStable   = "stable"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// VitalSign maps to the vital_signs table. Readings are append-only; nil
// means the vital was not measured.
type VitalSign struct {
	ID                     int       `json:"id"`
	PatientID              int       `json:"patient_id"`
	RecordedBy             int       `json:"recorded_by"`
	Temperature            *float64  `json:"temperature"`
	HeartRate              *int      `json:"heart_rate"`
	BloodPressureSystolic  *int      `json:"blood_pressure_systolic"`
	BloodPressureDiastolic *int      `json:"blood_pressure_diastolic"`
	RespiratoryRate        *int      `json:"respiratory_rate"`
	OxygenSaturation       *float64  `json:"oxygen_saturation"`
	PainLevel              *int      `json:"pain_level"`
	Notes                  string    `json:"notes,omitempty"`
	RecordedAt             time.Time `json:"recorded_at"`
	CreatedAt              time.Time `json:"created_at"`
}

// RecordRequest is the payload for recording a reading.
type RecordRequest struct {
	Temperature            *float64 `json:"temperature"`
	HeartRate              *int     `json:"heart_rate"`
	BloodPressureSystolic  *int     `json:"blood_pressure_systolic"`
	BloodPressureDiastolic *int     `json:"blood_pressure_diastolic"`
	RespiratoryRate        *int     `json:"respiratory_rate"`
	OxygenSaturation       *float64 `json:"oxygen_saturation"`
	PainLevel              *int     `json:"pain_level"`
	Notes                  string   `json:"notes"`
}

// Validate requires at least one measured vital.
func (r RecordRequest) Validate() error {
	if r.Temperature == nil && r.HeartRate == nil && r.BloodPressureSystolic == nil &&
		r.BloodPressureDiastolic == nil && r.RespiratoryRate == nil &&
		r.OxygenSaturation == nil && r.PainLevel == nil {
		return fmt.Errorf("%w: at least one vital sign is required", ErrInvalid)
	}
	return nil
}

func fromRow(r sqlbridge.Row) *VitalSign {
	return &VitalSign{
		ID:                     r.Int("id"),
		PatientID:              r.Int("patient_id"),
		RecordedBy:             r.Int("recorded_by"),
		Temperature:            r.NullableFloat("temperature"),
		HeartRate:              r.NullableInt("heart_rate"),
		BloodPressureSystolic:  r.NullableInt("blood_pressure_systolic"),
		BloodPressureDiastolic: r.NullableInt("blood_pressure_diastolic"),
		RespiratoryRate:        r.NullableInt("respiratory_rate"),
		OxygenSaturation:       r.NullableFloat("oxygen_saturation"),
		PainLevel:              r.NullableInt("pain_level"),
		Notes:                  r.String("notes"),
		RecordedAt:             r.Time("recorded_at"),
		CreatedAt:              r.Time("created_at"),
	}
}
