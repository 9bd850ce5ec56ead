// Package stats serves the dashboard patient counters. Figures are computed
// over a trailing 14-day window and cached briefly in Redis so the dashboard
// polling does not hammer the store.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/IbkArotiba/AaroCare/internal/domain/patient"
	"github.com/IbkArotiba/AaroCare/internal/platform/cache"
)

const (
	window   = 14 * 24 * time.Hour
	cacheTTL = 60 * time.Second
)

// PatientSource provides the raw patient rows the counters are derived from.
type PatientSource interface {
	List(ctx context.Context) ([]*patient.Patient, error)
}

// CriticalCounter reports how many patients flagged critical today. Backed by
// the urgent-note count in the notes package.
type CriticalCounter interface {
	CountUrgentToday(ctx context.Context) (int, error)
}

type Service struct {
	patients PatientSource
	critical CriticalCounter
	cache    cache.Cache
}

func NewService(patients PatientSource, critical CriticalCounter, c cache.Cache) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{patients: patients, critical: critical, cache: c}
}

// Count is one dashboard figure.
type Count struct {
	Value int `json:"value"`
}

// Total counts patients registered in the last 14 days.
func (s *Service) Total(ctx context.Context) (int, error) {
	return s.cached(ctx, "stats:patients:total", func(p *patient.Patient, cutoff time.Time) bool {
		return !p.CreatedAt.Before(cutoff)
	})
}

// Admissions counts patients admitted in the last 14 days.
func (s *Service) Admissions(ctx context.Context) (int, error) {
	return s.cached(ctx, "stats:patients:admissions", func(p *patient.Patient, cutoff time.Time) bool {
		return p.AdmissionDate != nil && !p.AdmissionDate.Before(cutoff)
	})
}

// Discharged counts patients discharged in the last 14 days.
func (s *Service) Discharged(ctx context.Context) (int, error) {
	return s.cached(ctx, "stats:patients:discharged", func(p *patient.Patient, cutoff time.Time) bool {
		return p.DischargeDate != nil && !p.DischargeDate.Before(cutoff)
	})
}

// Critical counts today's critical patients, approximated by urgent notes.
func (s *Service) Critical(ctx context.Context) (int, error) {
	key := "stats:patients:critical"
	var c Count
	if hit, err := s.cache.GetJSON(ctx, key, &c); err == nil && hit {
		return c.Value, nil
	}

	n, err := s.critical.CountUrgentToday(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting critical patients: %w", err)
	}
	_ = s.cache.SetJSON(ctx, key, Count{Value: n}, cacheTTL)
	return n, nil
}

func (s *Service) cached(ctx context.Context, key string, match func(*patient.Patient, time.Time) bool) (int, error) {
	var c Count
	if hit, err := s.cache.GetJSON(ctx, key, &c); err == nil && hit {
		return c.Value, nil
	}

	all, err := s.patients.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing patients: %w", err)
	}
	cutoff := time.Now().UTC().Add(-window).Truncate(24 * time.Hour)
	n := 0
	for _, p := range all {
		if match(p, cutoff) {
			n++
		}
	}
	_ = s.cache.SetJSON(ctx, key, Count{Value: n}, cacheTTL)
	return n, nil
}
