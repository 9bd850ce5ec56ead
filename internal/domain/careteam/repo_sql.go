package careteam

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/IbkArotiba/AaroCare/internal/platform/sqlbridge"
)

// SQLRepository persists care-team assignments through the SQL bridge.
type SQLRepository struct {
	client *sqlbridge.Client
}

func NewSQLRepository(client *sqlbridge.Client) *SQLRepository {
	return &SQLRepository{client: client}
}

func (r *SQLRepository) Create(ctx context.Context, m *Member) (*Member, error) {
	res, err := r.client.Query(ctx, `INSERT INTO care_teams
		(patient_id, user_id, role_in_care, is_active, assigned_by, assigned_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *`,
		[]any{
			m.PatientID, m.UserID, m.RoleInCare, m.IsActive, m.AssignedBy,
			m.AssignedAt, m.CreatedAt, m.UpdatedAt,
		})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, fmt.Errorf("insert returned no rows")
	}
	return fromRow(res.Rows[0]), nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int) (*Member, error) {
	res, err := r.client.Query(ctx, `SELECT * FROM care_teams WHERE id = $1`, []any{id})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, ErrNotFound
	}
	return fromRow(res.Rows[0]), nil
}

func (r *SQLRepository) ListActiveByPatient(ctx context.Context, patientID int) ([]*Member, error) {
	res, err := r.client.Query(ctx,
		`SELECT * FROM care_teams WHERE patient_id = $1 AND is_active = $2 ORDER BY assigned_at DESC`,
		[]any{patientID, true})
	if err != nil {
		return nil, err
	}
	return sortedMembers(res.Rows), nil
}

func (r *SQLRepository) ListAll(ctx context.Context) ([]*Member, error) {
	res, err := r.client.Query(ctx,
		`SELECT * FROM care_teams WHERE is_active = $1 ORDER BY assigned_at DESC`,
		[]any{true})
	if err != nil {
		return nil, err
	}
	return sortedMembers(res.Rows), nil
}

func (r *SQLRepository) Update(ctx context.Context, id int, cols []string, vals []any) (*Member, error) {
	assignments := make([]string, len(cols))
	for i, col := range cols {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	text := fmt.Sprintf("UPDATE care_teams SET %s WHERE id = $%d RETURNING *",
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

// sortedMembers orders newest assignment first; the bridge ignores ORDER BY.
func sortedMembers(rows []sqlbridge.Row) []*Member {
	members := make([]*Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, fromRow(row))
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].AssignedAt.After(members[j].AssignedAt)
	})
	return members
}
