package notes

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/IbkArotiba/AaroCare/internal/platform/sqlbridge"
)

// SQLRepository persists notes through the SQL bridge.
type SQLRepository struct {
	client *sqlbridge.Client
}

func NewSQLRepository(client *sqlbridge.Client) *SQLRepository {
	return &SQLRepository{client: client}
}

func (r *SQLRepository) Create(ctx context.Context, n *Note) (*Note, error) {
	res, err := r.client.Query(ctx, `INSERT INTO patient_notes
		(patient_id, author_id, note_type, priority, title, content, version, is_locked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING *`,
		[]any{
			n.PatientID, n.AuthorID, n.NoteType, n.Priority, n.Title, n.Content,
			n.Version, n.IsLocked, n.CreatedAt, n.UpdatedAt,
		})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, fmt.Errorf("insert returned no rows")
	}
	return fromRow(res.Rows[0]), nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int) (*Note, error) {
	res, err := r.client.Query(ctx, `SELECT * FROM patient_notes WHERE id = $1`, []any{id})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, ErrNotFound
	}
	return fromRow(res.Rows[0]), nil
}

func (r *SQLRepository) ListByPatient(ctx context.Context, patientID int) ([]*Note, error) {
	res, err := r.client.Query(ctx,
		`SELECT * FROM patient_notes WHERE patient_id = $1 ORDER BY created_at DESC`,
		[]any{patientID})
	if err != nil {
		return nil, err
	}
	return sorted(res.Rows), nil
}

func (r *SQLRepository) ListAll(ctx context.Context) ([]*Note, error) {
	res, err := r.client.Query(ctx, `SELECT * FROM patient_notes ORDER BY created_at DESC`, nil)
	if err != nil {
		return nil, err
	}
	return sorted(res.Rows), nil
}

func (r *SQLRepository) ListByPriority(ctx context.Context, priority string) ([]*Note, error) {
	res, err := r.client.Query(ctx,
		`SELECT * FROM patient_notes WHERE priority = $1`, []any{priority})
	if err != nil {
		return nil, err
	}
	return sorted(res.Rows), nil
}

func (r *SQLRepository) Update(ctx context.Context, id int, cols []string, vals []any) (*Note, error) {
	assignments := make([]string, len(cols))
	for i, col := range cols {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	text := fmt.Sprintf("UPDATE patient_notes SET %s WHERE id = $%d RETURNING *",
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

func (r *SQLRepository) Delete(ctx context.Context, id int) error {
	res, err := r.client.Query(ctx, `DELETE FROM patient_notes WHERE id = $1 RETURNING *`, []any{id})
	if err != nil {
		return err
	}
	if len(res.Rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func sorted(rows []sqlbridge.Row) []*Note {
	out := make([]*Note, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
