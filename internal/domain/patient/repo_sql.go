package patient

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/IbkArotiba/AaroCare/internal/platform/sqlbridge"
)

// SQLRepository persists patients through the SQL bridge.
type SQLRepository struct {
	client *sqlbridge.Client
}

func NewSQLRepository(client *sqlbridge.Client) *SQLRepository {
	return &SQLRepository{client: client}
}

func (r *SQLRepository) Create(ctx context.Context, p *Patient) (*Patient, error) {
	res, err := r.client.Query(ctx, `INSERT INTO patients
		(medical_record_number, first_name, last_name, date_of_birth, gender, phone, email, address,
		 emergency_contact_name, emergency_contact_phone, blood_type, allergies, status, room_number,
		 department, primary_diagnosis, admission_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING *`,
		[]any{
			p.MedicalRecordNumber, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Phone,
			p.Email, p.Address, p.EmergencyContactName, p.EmergencyContactPhone, p.BloodType,
			p.Allergies, p.Status, p.RoomNumber, p.Department, p.PrimaryDiagnosis,
			p.AdmissionDate, p.CreatedAt, p.UpdatedAt,
		})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, fmt.Errorf("insert returned no rows")
	}
	return fromRow(res.Rows[0]), nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int) (*Patient, error) {
	res, err := r.client.Query(ctx, `SELECT * FROM patients WHERE id = $1`, []any{id})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, ErrNotFound
	}
	return fromRow(res.Rows[0]), nil
}

// List returns all patients, newest admission first. Ordering happens here;
// the bridge ignores ORDER BY fragments.
func (r *SQLRepository) List(ctx context.Context) ([]*Patient, error) {
	res, err := r.client.Query(ctx, `SELECT * FROM patients ORDER BY created_at DESC`, nil)
	if err != nil {
		return nil, err
	}
	patients := make([]*Patient, 0, len(res.Rows))
	for _, row := range res.Rows {
		patients = append(patients, fromRow(row))
	}
	sort.Slice(patients, func(i, j int) bool {
		return patients[i].CreatedAt.After(patients[j].CreatedAt)
	})
	return patients, nil
}

func (r *SQLRepository) Update(ctx context.Context, id int, cols []string, vals []any) (*Patient, error) {
	if len(cols) == 0 {
		return r.GetByID(ctx, id)
	}
	assignments := make([]string, len(cols))
	for i, col := range cols {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	text := fmt.Sprintf("UPDATE patients SET %s WHERE id = $%d RETURNING *",
		strings.Join(assignments, ", "), len(cols)+1)

	res, err := r.client.Query(ctx, text, append(vals, id))
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, ErrNotFound
	}
	return fromRow(res.Rows[0]), nil
}
