package vitals

import (
	"context"
	"fmt"
	"time"
)

// Trend summarizes one vital across a patient's readings.
type Trend struct {
	Current         *float64 `json:"current"`
	Previous        *float64 `json:"previous"`
	ChangePercent   string   `json:"change_percent"`
	SevenDayAverage string   `json:"seven_day_average"`
	IsNormal        bool     `json:"is_normal"`
}

// History is the trend view served at /patients/:id/vitals/history.
type History struct {
	PatientID     int              `json:"patient_id"`
	ReadingCount  int              `json:"reading_count"`
	LatestStatus  string           `json:"latest_status"`
	TrendAnalysis map[string]Trend `json:"trend_analysis"`
}

var trendedVitals = []string{
	"temperature",
	"heart_rate",
	"blood_pressure_systolic",
	"blood_pressure_diastolic",
	"respiratory_rate",
	"oxygen_saturation",
}

// History computes per-vital trends over all of a patient's readings.
// A patient with no readings is a 404, not an empty analysis.
func (s *Service) History(ctx context.Context, patientID int) (*History, error) {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	readings, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("loading vitals history: %w", err)
	}
	if len(readings) == 0 {
		return nil, ErrNoReadings
	}

	analysis := make(map[string]Trend, len(trendedVitals))
	for _, vital := range trendedVitals {
		analysis[vital] = buildTrend(vital, readings, time.Now().UTC())
	}

	return &History{
		PatientID:     patientID,
		ReadingCount:  len(readings),
		LatestStatus:  Classify(readings[0]),
		TrendAnalysis: analysis,
	}, nil
}

// buildTrend walks readings (newest first) and derives current/previous
// values, the signed percent change, and the 7-day average for one vital.
func buildTrend(vital string, readings []*VitalSign, now time.Time) Trend {
	var current, previous *float64
	var weekSum float64
	var weekCount int
	weekStart := now.AddDate(0, 0, -7)

	for _, r := range readings {
		value := vitalValue(vital, r)
		if value == nil {
			continue
		}
		if current == nil {
			current = value
		} else if previous == nil {
			previous = value
		}
		if r.RecordedAt.After(weekStart) {
			weekSum += *value
			weekCount++
		}
	}

	t := Trend{
		Current:         current,
		Previous:        previous,
		ChangePercent:   "N/A",
		SevenDayAverage: "N/A",
		IsNormal:        true,
	}
	if current != nil {
		t.IsNormal = isNormal(vital, *current)
	}
	if current != nil && previous != nil && *previous != 0 {
		t.ChangePercent = fmt.Sprintf("%+.2f%%", (*current-*previous) / *previous * 100)
	}
	if weekCount > 0 {
		t.SevenDayAverage = fmt.Sprintf("%.1f", weekSum/float64(weekCount))
	}
	return t
}

func vitalValue(vital string, v *VitalSign) *float64 {
	toFloat := func(n *int) *float64 {
		if n == nil {
			return nil
		}
		f := float64(*n)
		return &f
	}
	switch vital {
	case "temperature":
		return v.Temperature
	case "heart_rate":
		return toFloat(v.HeartRate)
	case "blood_pressure_systolic":
		return toFloat(v.BloodPressureSystolic)
	case "blood_pressure_diastolic":
		return toFloat(v.BloodPressureDiastolic)
	case "respiratory_rate":
		return toFloat(v.RespiratoryRate)
	case "oxygen_saturation":
		return v.OxygenSaturation
	}
	return nil
}
