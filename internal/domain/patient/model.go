package patient

import (
	"fmt"
	"time"

	"github.com/IbkArotiba/AaroCare/internal/platform/sqlbridge"
)

// Patient statuses. Discharge is a one-way transition.
const (
	StatusActive     = "active"
	StatusDischarged = "discharged"
)

// Patient maps to the patients table.
type Patient struct {
	ID                    int        `json:"id"`
	MedicalRecordNumber   string     `json:"medical_record_number"`
	FirstName             string     `json:"first_name"`
	LastName              string     `json:"last_name"`
	DateOfBirth           string     `json:"date_of_birth"`
	Gender                string     `json:"gender,omitempty"`
	Phone                 string     `json:"phone,omitempty"`
	Email                 string     `json:"email,omitempty"`
	Address               string     `json:"address,omitempty"`
	EmergencyContactName  string     `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string     `json:"emergency_contact_phone,omitempty"`
	BloodType             string     `json:"blood_type,omitempty"`
	Allergies             string     `json:"allergies,omitempty"`
	Status                string     `json:"status"`
	RoomNumber            string     `json:"room_number,omitempty"`
	Department            string     `json:"department,omitempty"`
	PrimaryDiagnosis      string     `json:"primary_diagnosis,omitempty"`
	AdmissionDate         *time.Time `json:"admission_date,omitempty"`
	DischargeDate         *time.Time `json:"discharge_date,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// CreateRequest is the payload for admitting a patient.
type CreateRequest struct {
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	DateOfBirth           string `json:"date_of_birth"`
	Gender                string `json:"gender"`
	Phone                 string `json:"phone"`
	Email                 string `json:"email"`
	Address               string `json:"address"`
	EmergencyContactName  string `json:"emergency_contact_name"`
	EmergencyContactPhone string `json:"emergency_contact_phone"`
	BloodType             string `json:"blood_type"`
	Allergies             string `json:"allergies"`
	RoomNumber            string `json:"room_number"`
	Department            string `json:"department"`
	PrimaryDiagnosis      string `json:"primary_diagnosis"`
}

// Validate enforces the required admission fields.
func (r CreateRequest) Validate() error {
	if r.FirstName == "" || r.LastName == "" || r.DateOfBirth == "" {
		return fmt.Errorf("%w: first_name, last_name and date_of_birth are required", ErrInvalid)
	}
	return nil
}

// UpdateRequest carries the mutable patient fields; nil means unchanged.
type UpdateRequest struct {
	Phone                 *string `json:"phone"`
	Email                 *string `json:"email"`
	Address               *string `json:"address"`
	EmergencyContactName  *string `json:"emergency_contact_name"`
	EmergencyContactPhone *string `json:"emergency_contact_phone"`
	Allergies             *string `json:"allergies"`
	RoomNumber            *string `json:"room_number"`
	Department            *string `json:"department"`
	PrimaryDiagnosis      *string `json:"primary_diagnosis"`
}

// Fields returns the changed columns in a stable order.
func (r UpdateRequest) Fields() ([]string, []any) {
	var cols []string
	var vals []any
	add := func(col string, v *string) {
		if v != nil {
			cols = append(cols, col)
			vals = append(vals, *v)
		}
	}
	add("phone", r.Phone)
	add("email", r.Email)
	add("address", r.Address)
	add("emergency_contact_name", r.EmergencyContactName)
	add("emergency_contact_phone", r.EmergencyContactPhone)
	add("allergies", r.Allergies)
	add("room_number", r.RoomNumber)
	add("department", r.Department)
	add("primary_diagnosis", r.PrimaryDiagnosis)
	return cols, vals
}

// ListFilters narrows the patient list. Matching happens in memory after the
// rows come back from the store.
type ListFilters struct {
	Name      string
	Status    string
	Room      string
	Diagnosis string
}

func fromRow(r sqlbridge.Row) *Patient {
	return &Patient{
		ID:                    r.Int("id"),
		MedicalRecordNumber:   r.String("medical_record_number"),
		FirstName:             r.String("first_name"),
		LastName:              r.String("last_name"),
		DateOfBirth:           dateString(r, "date_of_birth"),
		Gender:                r.String("gender"),
		Phone:                 r.String("phone"),
		Email:                 r.String("email"),
		Address:               r.String("address"),
		EmergencyContactName:  r.String("emergency_contact_name"),
		EmergencyContactPhone: r.String("emergency_contact_phone"),
		BloodType:             r.String("blood_type"),
		Allergies:             r.String("allergies"),
		Status:                r.String("status"),
		RoomNumber:            r.String("room_number"),
		Department:            r.String("department"),
		PrimaryDiagnosis:      r.String("primary_diagnosis"),
		AdmissionDate:         r.NullableTime("admission_date"),
		DischargeDate:         r.NullableTime("discharge_date"),
		CreatedAt:             r.Time("created_at"),
		UpdatedAt:             r.Time("updated_at"),
	}
}

// dateString renders a DATE column as YYYY-MM-DD whether the store returned
// it as a time or a string.
func dateString(r sqlbridge.Row, col string) string {
	if t := r.Time(col); !t.IsZero() {
		return t.Format("2006-01-02")
	}
	return r.String(col)
}
