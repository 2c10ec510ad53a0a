package database

import (
	"context"

	"github.com/google/uuid"
)

const userAccountColumns = `id, email, hashed_password, full_name, role, is_active, created_at, updated_at`

func scanUserAccount(row interface{ Scan(...interface{}) error }) (UserAccount, error) {
	var u UserAccount
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.FullName,
		&u.RoleCode, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (UserAccount, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userAccountColumns+`
		FROM user_accounts WHERE email = $1 AND is_active = true`, email)
	return scanUserAccount(row)
}

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (UserAccount, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userAccountColumns+`
		FROM user_accounts WHERE id = $1 AND is_active = true`, id)
	return scanUserAccount(row)
}

type CreateUserAccountParams struct {
	Email          string
	HashedPassword string
	FullName       string
	RoleCode       int16
}

func (q *Queries) CreateUserAccount(ctx context.Context, arg CreateUserAccountParams) (UserAccount, error) {
	row := q.db.QueryRow(ctx, `INSERT INTO user_accounts (email, hashed_password, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userAccountColumns, arg.Email, arg.HashedPassword, arg.FullName, arg.RoleCode)
	return scanUserAccount(row)
}

type UpdateUserAccountParams struct {
	ID       uuid.UUID
	Email    string
	FullName string
}

func (q *Queries) UpdateUserAccount(ctx context.Context, arg UpdateUserAccountParams) (UserAccount, error) {
	row := q.db.QueryRow(ctx, `UPDATE user_accounts
		SET email = $2, full_name = $3, updated_at = now()
		WHERE id = $1 AND is_active = true
		RETURNING `+userAccountColumns, arg.ID, arg.Email, arg.FullName)
	return scanUserAccount(row)
}

// SoftDeleteUserAccount deactivates the account; rows are never removed.
func (q *Queries) SoftDeleteUserAccount(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `UPDATE user_accounts
		SET is_active = false, updated_at = now()
		WHERE id = $1 AND is_active = true
		RETURNING id`, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
