package treatment

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/IbkArotiba/AaroCare/internal/platform/sqlbridge"
)

// SQLRepository persists plan versions through the SQL bridge.
type SQLRepository struct {
	client *sqlbridge.Client
}

func NewSQLRepository(client *sqlbridge.Client) *SQLRepository {
	return &SQLRepository{client: client}
}

func (r *SQLRepository) Create(ctx context.Context, p *Plan) (*Plan, error) {
	res, err := r.client.Query(ctx, `INSERT INTO treatment_plans
		(patient_id, parent_plan_id, version_number, created_by, diagnosis,
		 treatment_goals, medications, procedures, dietary_restrictions,
		 activity_level, follow_up_instructions, estimated_discharge_date,
		 status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING *`,
		[]any{
			p.PatientID, p.ParentPlanID, p.VersionNumber, p.CreatedBy, p.Diagnosis,
			p.TreatmentGoals, p.Medications, p.Procedures, p.DietaryRestrictions,
			p.ActivityLevel, p.FollowUpInstructions, p.EstimatedDischargeDate,
			p.Status, p.CreatedAt, p.UpdatedAt,
		})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, fmt.Errorf("insert returned no rows")
	}
	return fromRow(res.Rows[0]), nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int) (*Plan, error) {
	res, err := r.client.Query(ctx, `SELECT * FROM treatment_plans WHERE id = $1`, []any{id})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, ErrNotFound
	}
	return fromRow(res.Rows[0]), nil
}

func (r *SQLRepository) GetActiveByPatient(ctx context.Context, patientID int) (*Plan, error) {
	res, err := r.client.Query(ctx,
		`SELECT * FROM treatment_plans WHERE patient_id = $1 AND status = $2`,
		[]any{patientID, StatusActive})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, ErrNoActivePlan
	}
	plans := sortedPlans(res.Rows)
	return plans[0], nil
}

func (r *SQLRepository) ListAll(ctx context.Context) ([]*Plan, error) {
	res, err := r.client.Query(ctx, `SELECT * FROM treatment_plans ORDER BY created_at DESC`, nil)
	if err != nil {
		return nil, err
	}
	return sortedPlans(res.Rows), nil
}

func (r *SQLRepository) Update(ctx context.Context, id int, cols []string, vals []any) (*Plan, error) {
	assignments := make([]string, len(cols))
	for i, col := range cols {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	text := fmt.Sprintf("UPDATE treatment_plans SET %s WHERE id = $%d RETURNING *",
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

// sortedPlans orders newest first; the bridge ignores ORDER BY.
func sortedPlans(rows []sqlbridge.Row) []*Plan {
	plans := make([]*Plan, 0, len(rows))
	for _, row := range rows {
		plans = append(plans, fromRow(row))
	}
	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
	return plans
}
