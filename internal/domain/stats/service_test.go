package stats

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/IbkArotiba/AaroCare/internal/domain/patient"
)

type fakePatients struct {
	patients []*patient.Patient
	calls    int
}

func (f *fakePatients) List(context.Context) ([]*patient.Patient, error) {
	f.calls++
	return f.patients, nil
}

type fakeCritical struct {
	count int
}

func (f *fakeCritical) CountUrgentToday(context.Context) (int, error) {
	return f.count, nil
}

// memoryCache is an in-process stand-in for the Redis cache.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	sets  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (m *memoryCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.items[key]
	if !ok {
		return false, nil
	}
	c := dest.(*Count)
	c.Value = int(data[0])
	return true, nil
}

func (m *memoryCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = []byte{byte(value.(Count).Value)}
	m.sets++
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func seedPatients() []*patient.Patient {
	now := time.Now().UTC()
	recent := now.Add(-2 * 24 * time.Hour)
	old := now.Add(-30 * 24 * time.Hour)
	return []*patient.Patient{
		{ID: 1, CreatedAt: recent, AdmissionDate: &recent},
		{ID: 2, CreatedAt: recent, AdmissionDate: &recent, DischargeDate: &recent},
		{ID: 3, CreatedAt: old, AdmissionDate: &old, DischargeDate: &old},
	}
}

func TestCounters_TrailingWindow(t *testing.T) {
	patients := &fakePatients{patients: seedPatients()}
	svc := NewService(patients, &fakeCritical{count: 4}, nil)

	total, err := svc.Total(context.Background())
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 2 {
		t.Errorf("total: patients older than 14 days must not count, got %d", total)
	}

	admissions, _ := svc.Admissions(context.Background())
	if admissions != 2 {
		t.Errorf("admissions window failed, got %d", admissions)
	}

	discharged, _ := svc.Discharged(context.Background())
	if discharged != 1 {
		t.Errorf("discharged window failed, got %d", discharged)
	}

	critical, _ := svc.Critical(context.Background())
	if critical != 4 {
		t.Errorf("critical should mirror urgent-note count, got %d", critical)
	}
}

func TestCounters_CacheAbsorbsRepeats(t *testing.T) {
	patients := &fakePatients{patients: seedPatients()}
	c := newMemoryCache()
	svc := NewService(patients, &fakeCritical{count: 1}, c)

	first, err := svc.Total(context.Background())
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	second, err := svc.Total(context.Background())
	if err != nil {
		t.Fatalf("cached total: %v", err)
	}
	if first != second {
		t.Errorf("cached value mismatch: %d vs %d", first, second)
	}
	if patients.calls != 1 {
		t.Errorf("second call should be served from cache, store hit %d times", patients.calls)
	}
	if c.sets != 1 {
		t.Errorf("expected one cache write, got %d", c.sets)
	}
}

func TestCounters_NilCacheMeansNoCaching(t *testing.T) {
	patients := &fakePatients{patients: seedPatients()}
	svc := NewService(patients, &fakeCritical{}, nil)

	if _, err := svc.Total(context.Background()); err != nil {
		t.Fatalf("total: %v", err)
	}
	if _, err := svc.Total(context.Background()); err != nil {
		t.Fatalf("total: %v", err)
	}
	if patients.calls != 2 {
		t.Errorf("nop cache should recompute every call, store hit %d times", patients.calls)
	}
}
