package vitals

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IbkArotiba/AaroCare/internal/domain/patient"
	"github.com/IbkArotiba/AaroCare/internal/platform/audit"
	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
)

type fakeRepo struct {
	readings []*VitalSign
	nextID   int
}

func (f *fakeRepo) Create(_ context.Context, v *VitalSign) (*VitalSign, error) {
	f.nextID++
	cp := *v
	cp.ID = f.nextID
	f.readings = append(f.readings, &cp)
	return &cp, nil
}

func (f *fakeRepo) ListByPatient(_ context.Context, patientID int) ([]*VitalSign, error) {
	var out []*VitalSign
	for i := len(f.readings) - 1; i >= 0; i-- {
		if f.readings[i].PatientID == patientID {
			out = append(out, f.readings[i])
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAll(_ context.Context) ([]*VitalSign, error) {
	out := make([]*VitalSign, len(f.readings))
	copy(out, f.readings)
	return out, nil
}

type fakePatients struct {
	patients map[int]*patient.Patient
}

func (f *fakePatients) GetByID(_ context.Context, id int) (*patient.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	return p, nil
}

type captureRecorder struct {
	entries []audit.Entry
}

func (r *captureRecorder) Record(_ context.Context, e audit.Entry) {
	r.entries = append(r.entries, e)
}

type capturePublisher struct {
	departments []string
	alerts      []any
}

func (p *capturePublisher) PublishAlert(_ context.Context, department string, alert any) {
	p.departments = append(p.departments, department)
	p.alerts = append(p.alerts, alert)
}

var nurse = auth.Actor{ID: 5, Role: auth.RoleNurse, Department: "icu"}

func newFixture() (*Service, *fakeRepo, *captureRecorder, *capturePublisher) {
	repo := &fakeRepo{}
	patients := &fakePatients{patients: map[int]*patient.Patient{
		1: {ID: 1, FirstName: "Ada", LastName: "Lovelace", Department: "icu", RoomNumber: "101"},
	}}
	rec := &captureRecorder{}
	pub := &capturePublisher{}
	return NewService(repo, patients, rec, pub), repo, rec, pub
}

func fptr(f float64) *float64 { return &f }
func iptr(n int) *int         { return &n }

func TestRecord_NormalReadingNoAlert(t *testing.T) {
	svc, repo, rec, pub := newFixture()

	created, err := svc.Record(context.Background(), nurse, 1, RecordRequest{
		Temperature: fptr(36.8),
		HeartRate:   iptr(72),
	}, audit.RequestMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == 0 || created.RecordedBy != nurse.ID {
		t.Errorf("reading malformed: %+v", created)
	}
	if len(repo.readings) != 1 {
		t.Fatalf("expected one stored reading")
	}
	if len(pub.alerts) != 0 {
		t.Error("normal reading must not raise an alert")
	}
	if len(rec.entries) != 1 || rec.entries[0].Action != audit.ActionRecordVitals {
		t.Errorf("expected RECORD_VITALS audit entry, got %v", rec.entries)
	}
}

func TestRecord_CriticalReadingAlertsDepartment(t *testing.T) {
	svc, _, _, pub := newFixture()

	_, err := svc.Record(context.Background(), nurse, 1, RecordRequest{
		OxygenSaturation: fptr(88),
	}, audit.RequestMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.alerts) != 1 || pub.departments[0] != "icu" {
		t.Fatalf("critical reading should alert the patient's department, got %v", pub.departments)
	}
	alert := pub.alerts[0].(map[string]any)
	if alert["severity"] != StatusCritical || alert["patient_id"] != 1 {
		t.Errorf("alert payload wrong: %v", alert)
	}
}

func TestRecord_EmptyRequestRejected(t *testing.T) {
	svc, repo, _, _ := newFixture()
	_, err := svc.Record(context.Background(), nurse, 1, RecordRequest{}, audit.RequestMeta{})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.readings) != 0 {
		t.Error("nothing should be stored on validation failure")
	}
}

func TestRecord_UnknownPatient(t *testing.T) {
	svc, _, _, _ := newFixture()
	_, err := svc.Record(context.Background(), nurse, 99, RecordRequest{HeartRate: iptr(80)}, audit.RequestMeta{})
	if !errors.Is(err, patient.ErrNotFound) {
		t.Fatalf("expected patient not-found, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		v    VitalSign
		want string
	}{
		{"all normal", VitalSign{Temperature: fptr(36.8), HeartRate: iptr(75)}, StatusStable},
		{"high fever", VitalSign{Temperature: fptr(39.5)}, StatusCritical},
		{"tachycardia", VitalSign{HeartRate: iptr(130)}, StatusCritical},
		{"low spo2", VitalSign{OxygenSaturation: fptr(88)}, StatusCritical},
		{"severe pain", VitalSign{PainLevel: iptr(8)}, StatusCritical},
		{"mild fever", VitalSign{Temperature: fptr(37.8)}, StatusWarning},
		{"elevated hr", VitalSign{HeartRate: iptr(105)}, StatusWarning},
		{"moderate pain", VitalSign{PainLevel: iptr(5)}, StatusWarning},
		{"hypertensive sys", VitalSign{BloodPressureSystolic: iptr(150)}, StatusWarning},
		{"hypotensive sys", VitalSign{BloodPressureSystolic: iptr(75)}, StatusCritical},
	}
	for _, tc := range cases {
		if got := Classify(&tc.v); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestHistory_AbnormalFlags(t *testing.T) {
	svc, repo, _, _ := newFixture()
	now := time.Now().UTC()

	repo.readings = []*VitalSign{
		{ID: 1, PatientID: 1, Temperature: fptr(37.0), HeartRate: iptr(80), OxygenSaturation: fptr(98), RecordedAt: now.Add(-48 * time.Hour)},
		{ID: 2, PatientID: 1, Temperature: fptr(39.5), HeartRate: iptr(130), OxygenSaturation: fptr(88), RecordedAt: now.Add(-time.Hour)},
	}
	repo.nextID = 2

	h, err := svc.History(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.ReadingCount != 2 || h.LatestStatus != StatusCritical {
		t.Errorf("history summary wrong: %+v", h)
	}

	for _, vital := range []string{"temperature", "heart_rate", "oxygen_saturation"} {
		trend := h.TrendAnalysis[vital]
		if trend.IsNormal {
			t.Errorf("%s should be flagged abnormal: %+v", vital, trend)
		}
	}

	temp := h.TrendAnalysis["temperature"]
	if temp.Current == nil || *temp.Current != 39.5 || temp.Previous == nil || *temp.Previous != 37.0 {
		t.Fatalf("temperature current/previous wrong: %+v", temp)
	}
	if temp.ChangePercent != "+6.76%" {
		t.Errorf("expected +6.76%% change, got %s", temp.ChangePercent)
	}
	if temp.SevenDayAverage == "N/A" {
		t.Error("seven-day average should cover both readings")
	}
}

func TestHistory_MissingVitalIsNA(t *testing.T) {
	svc, repo, _, _ := newFixture()
	repo.readings = []*VitalSign{
		{ID: 1, PatientID: 1, Temperature: fptr(36.9), RecordedAt: time.Now().UTC()},
	}

	h, err := svc.History(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rr := h.TrendAnalysis["respiratory_rate"]
	if rr.Current != nil || rr.ChangePercent != "N/A" || rr.SevenDayAverage != "N/A" {
		t.Errorf("unmeasured vital should be N/A across the board: %+v", rr)
	}

	temp := h.TrendAnalysis["temperature"]
	if temp.ChangePercent != "N/A" {
		t.Errorf("single reading has no change percent, got %s", temp.ChangePercent)
	}
}

func TestHistory_NoReadings404(t *testing.T) {
	svc, _, _, _ := newFixture()
	_, err := svc.History(context.Background(), 1)
	if !errors.Is(err, ErrNoReadings) {
		t.Fatalf("expected ErrNoReadings, got %v", err)
	}
}

func TestList_DateFilter(t *testing.T) {
	svc, repo, _, _ := newFixture()
	today := time.Now().UTC()
	repo.readings = []*VitalSign{
		{ID: 1, PatientID: 1, HeartRate: iptr(70), RecordedAt: today.AddDate(0, 0, -3)},
		{ID: 2, PatientID: 1, HeartRate: iptr(75), RecordedAt: today},
	}

	day := today.Format("2006-01-02")
	got, err := svc.List(context.Background(), 1, day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("date filter failed: %v", got)
	}

	if _, err := svc.List(context.Background(), 1, "03/14/2026"); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected invalid date error, got %v", err)
	}
}

func TestListAll_EnrichesWithPatient(t *testing.T) {
	svc, repo, _, _ := newFixture()
	repo.readings = []*VitalSign{
		{ID: 1, PatientID: 1, OxygenSaturation: fptr(88), RecordedAt: time.Now().UTC()},
		{ID: 2, PatientID: 42, HeartRate: iptr(70), RecordedAt: time.Now().UTC()},
	}

	got, err := svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Reading 2 belongs to an unknown patient and is skipped.
	if len(got) != 1 {
		t.Fatalf("expected 1 enriched reading, got %d", len(got))
	}
	if got[0].PatientName != "Ada Lovelace" || got[0].Status != StatusCritical {
		t.Errorf("enrichment wrong: %+v", got[0])
	}
}

func TestRecord_RepoErrorWrapped(t *testing.T) {
	repo := &failingRepo{}
	patients := &fakePatients{patients: map[int]*patient.Patient{1: {ID: 1}}}
	svc := NewService(repo, patients, &captureRecorder{}, nil)

	_, err := svc.Record(context.Background(), nurse, 1, RecordRequest{HeartRate: iptr(70)}, audit.RequestMeta{})
	if err == nil {
		t.Fatal("expected error")
	}
}

type failingRepo struct{}

func (failingRepo) Create(context.Context, *VitalSign) (*VitalSign, error) {
	return nil, fmt.Errorf("store down")
}
func (failingRepo) ListByPatient(context.Context, int) ([]*VitalSign, error) {
	return nil, fmt.Errorf("store down")
}
func (failingRepo) ListAll(context.Context) ([]*VitalSign, error) {
	return nil, fmt.Errorf("store down")
}
