package patient

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IbkArotiba/AaroCare/internal/platform/audit"
	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
)

type fakeRepo struct {
	patients map[int]*Patient
	nextID   int
	failAll  bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{patients: make(map[int]*Patient), nextID: 1}
}

func (f *fakeRepo) Create(_ context.Context, p *Patient) (*Patient, error) {
	if f.failAll {
		return nil, fmt.Errorf("store down")
	}
	cp := *p
	cp.ID = f.nextID
	f.nextID++
	f.patients[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id int) (*Patient, error) {
	if f.failAll {
		return nil, fmt.Errorf("store down")
	}
	p, ok := f.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) List(_ context.Context) ([]*Patient, error) {
	if f.failAll {
		return nil, fmt.Errorf("store down")
	}
	var out []*Patient
	for _, p := range f.patients {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, id int, cols []string, vals []any) (*Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	for i, col := range cols {
		switch col {
		case "status":
			p.Status = vals[i].(string)
		case "discharge_date":
			t := vals[i].(time.Time)
			p.DischargeDate = &t
		case "phone":
			p.Phone = vals[i].(string)
		case "room_number":
			p.RoomNumber = vals[i].(string)
		case "updated_at":
			p.UpdatedAt = vals[i].(time.Time)
		}
	}
	cp := *p
	return &cp, nil
}

type captureRecorder struct {
	entries []audit.Entry
}

func (r *captureRecorder) Record(_ context.Context, e audit.Entry) {
	r.entries = append(r.entries, e)
}

var testActor = auth.Actor{ID: 9, Role: auth.RoleDoctor, Department: "cardiology"}

func validCreate() CreateRequest {
	return CreateRequest{FirstName: "Ada", LastName: "Lovelace", DateOfBirth: "1990-03-14"}
}

func TestCreate_RoundTrip(t *testing.T) {
	repo := newFakeRepo()
	rec := &captureRecorder{}
	svc := NewService(repo, rec)

	created, err := svc.Create(context.Background(), testActor, validCreate(), audit.RequestMeta{IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == 0 || created.Status != StatusActive {
		t.Errorf("created patient malformed: %+v", created)
	}
	if created.MedicalRecordNumber == "" {
		t.Error("MRN should be generated")
	}
	if created.AdmissionDate == nil {
		t.Error("admission date should be stamped")
	}

	got, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("fetch after create: %v", err)
	}
	if got.FirstName != "Ada" || got.LastName != "Lovelace" || got.DateOfBirth != "1990-03-14" {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	if len(rec.entries) != 1 || rec.entries[0].Action != audit.ActionCreatePatient {
		t.Errorf("expected one CREATE_PATIENT audit entry, got %v", rec.entries)
	}
}

func TestCreate_MissingRequiredFields(t *testing.T) {
	repo := newFakeRepo()
	rec := &captureRecorder{}
	svc := NewService(repo, rec)

	req := validCreate()
	req.DateOfBirth = ""
	_, err := svc.Create(context.Background(), testActor, req, audit.RequestMeta{})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.patients) != 0 {
		t.Error("nothing should be written on validation failure")
	}
	if len(rec.entries) != 0 {
		t.Error("no audit entry on validation failure")
	}
}

func TestDischarge_OneWayTransition(t *testing.T) {
	repo := newFakeRepo()
	rec := &captureRecorder{}
	svc := NewService(repo, rec)

	created, err := svc.Create(context.Background(), testActor, validCreate(), audit.RequestMeta{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	discharged, err := svc.Discharge(context.Background(), testActor, created.ID, audit.RequestMeta{})
	if err != nil {
		t.Fatalf("first discharge: %v", err)
	}
	if discharged.Status != StatusDischarged || discharged.DischargeDate == nil {
		t.Fatalf("discharge did not apply: %+v", discharged)
	}
	firstStamp := *discharged.DischargeDate

	_, err = svc.Discharge(context.Background(), testActor, created.ID, audit.RequestMeta{})
	if !errors.Is(err, ErrAlreadyDischarged) {
		t.Fatalf("second discharge should fail, got %v", err)
	}

	stored := repo.patients[created.ID]
	if !stored.DischargeDate.Equal(firstStamp) {
		t.Error("second attempt must not overwrite the discharge timestamp")
	}

	var dischargeEntries int
	for _, e := range rec.entries {
		if e.Action == audit.ActionDischargePatient {
			dischargeEntries++
		}
	}
	if dischargeEntries != 1 {
		t.Errorf("expected exactly one discharge audit entry, got %d", dischargeEntries)
	}
}

func TestDischarge_UnknownPatient(t *testing.T) {
	svc := NewService(newFakeRepo(), &captureRecorder{})
	_, err := svc.Discharge(context.Background(), testActor, 404, audit.RequestMeta{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestList_Filters(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &captureRecorder{})

	for _, seed := range []CreateRequest{
		{FirstName: "Ada", LastName: "Lovelace", DateOfBirth: "1990-03-14", RoomNumber: "101", PrimaryDiagnosis: "pneumonia"},
		{FirstName: "Grace", LastName: "Hopper", DateOfBirth: "1985-12-09", RoomNumber: "102", PrimaryDiagnosis: "fracture"},
	} {
		if _, err := svc.Create(context.Background(), testActor, seed, audit.RequestMeta{}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	byName, err := svc.List(context.Background(), ListFilters{Name: "lovelace"})
	if err != nil {
		t.Fatalf("list by name: %v", err)
	}
	if len(byName) != 1 || byName[0].FirstName != "Ada" {
		t.Errorf("name filter failed: %v", byName)
	}

	byRoom, _ := svc.List(context.Background(), ListFilters{Room: "102"})
	if len(byRoom) != 1 || byRoom[0].FirstName != "Grace" {
		t.Errorf("room filter failed: %v", byRoom)
	}

	byDiagnosis, _ := svc.List(context.Background(), ListFilters{Diagnosis: "PNEU"})
	if len(byDiagnosis) != 1 || byDiagnosis[0].FirstName != "Ada" {
		t.Errorf("diagnosis filter should be case-insensitive: %v", byDiagnosis)
	}

	all, _ := svc.List(context.Background(), ListFilters{})
	if len(all) != 2 {
		t.Errorf("unfiltered list should return everyone, got %d", len(all))
	}
}

func TestUpdate_AuditsOldAndNew(t *testing.T) {
	repo := newFakeRepo()
	rec := &captureRecorder{}
	svc := NewService(repo, rec)

	created, _ := svc.Create(context.Background(), testActor, validCreate(), audit.RequestMeta{})

	phone := "555-0100"
	updated, err := svc.Update(context.Background(), testActor, created.ID, UpdateRequest{Phone: &phone}, audit.RequestMeta{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Phone != "555-0100" {
		t.Errorf("phone not applied: %+v", updated)
	}

	last := rec.entries[len(rec.entries)-1]
	if last.Action != audit.ActionUpdatePatient || last.OldValues == nil || last.NewValues == nil {
		t.Errorf("update audit entry incomplete: %+v", last)
	}
}
