package account

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/IbkArotiba/AaroCare/internal/platform/sqlbridge"
)

// SQLRepository persists users through the SQL bridge.
type SQLRepository struct {
	client *sqlbridge.Client
}

func NewSQLRepository(client *sqlbridge.Client) *SQLRepository {
	return &SQLRepository{client: client}
}

func (r *SQLRepository) Create(ctx context.Context, u *User) (*User, error) {
	res, err := r.client.Query(ctx, `INSERT INTO users
		(cognito_sub, email, first_name, last_name, role, department, phone,
		 password_change_required, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING *`,
		[]any{
			u.CognitoSub, u.Email, u.FirstName, u.LastName, u.Role, u.Department,
			u.Phone, u.PasswordChangeRequired, u.IsActive, u.CreatedAt, u.UpdatedAt,
		})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, fmt.Errorf("insert returned no rows")
	}
	return fromRow(res.Rows[0]), nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int) (*User, error) {
	res, err := r.client.Query(ctx, `SELECT * FROM users WHERE id = $1`, []any{id})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, ErrNotFound
	}
	return fromRow(res.Rows[0]), nil
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	res, err := r.client.Query(ctx, `SELECT * FROM users WHERE email = $1`, []any{email})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, ErrNotFound
	}
	return fromRow(res.Rows[0]), nil
}

func (r *SQLRepository) List(ctx context.Context) ([]*User, error) {
	res, err := r.client.Query(ctx, `SELECT * FROM users ORDER BY last_name`, nil)
	if err != nil {
		return nil, err
	}
	users := make([]*User, 0, len(res.Rows))
	for _, row := range res.Rows {
		users = append(users, fromRow(row))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].LastName != users[j].LastName {
			return users[i].LastName < users[j].LastName
		}
		return users[i].FirstName < users[j].FirstName
	})
	return users, nil
}

func (r *SQLRepository) UpdateByEmail(ctx context.Context, email string, cols []string, vals []any) (*User, error) {
	assignments := make([]string, len(cols))
	for i, col := range cols {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	text := fmt.Sprintf("UPDATE users SET %s WHERE email = $%d RETURNING *",
		strings.Join(assignments, ", "), len(cols)+1)

	res, err := r.client.Query(ctx, text, append(vals, email))
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, ErrNotFound
	}
	return fromRow(res.Rows[0]), nil
}
