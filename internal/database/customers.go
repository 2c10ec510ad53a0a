package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreateCustomerProfileParams struct {
	UserID  uuid.UUID
	Phone   pgtype.Text
	Address pgtype.Text
}

func (q *Queries) CreateCustomerProfile(ctx context.Context, arg CreateCustomerProfileParams) (CustomerProfile, error) {
	row := q.db.QueryRow(ctx, `INSERT INTO customer_profiles (user_id, phone, address)
		VALUES ($1, $2, $3)
		RETURNING user_id, phone, address, created_at, updated_at`, arg.UserID, arg.Phone, arg.Address)
	var p CustomerProfile
	err := row.Scan(&p.UserID, &p.Phone, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (q *Queries) GetCustomerProfile(ctx context.Context, userID uuid.UUID) (CustomerProfile, error) {
	row := q.db.QueryRow(ctx, `SELECT user_id, phone, address, created_at, updated_at
		FROM customer_profiles WHERE user_id = $1`, userID)
	var p CustomerProfile
	err := row.Scan(&p.UserID, &p.Phone, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

type UpdateCustomerProfileParams struct {
	UserID  uuid.UUID
	Phone   pgtype.Text
	Address pgtype.Text
}

func (q *Queries) UpdateCustomerProfile(ctx context.Context, arg UpdateCustomerProfileParams) (CustomerProfile, error) {
	row := q.db.QueryRow(ctx, `UPDATE customer_profiles
		SET phone = $2, address = $3, updated_at = now()
		WHERE user_id = $1
		RETURNING user_id, phone, address, created_at, updated_at`, arg.UserID, arg.Phone, arg.Address)
	var p CustomerProfile
	err := row.Scan(&p.UserID, &p.Phone, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListCustomersRow joins the account with its profile for the admin view.
type ListCustomersRow struct {
	ID       uuid.UUID
	Email    string
	FullName string
	Phone    pgtype.Text
	IsActive bool
}

type ListCustomersParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListCustomers(ctx context.Context, arg ListCustomersParams) ([]ListCustomersRow, error) {
	rows, err := q.db.Query(ctx, `SELECT u.id, u.email, u.full_name, c.phone, u.is_active
		FROM user_accounts u
		JOIN customer_profiles c ON c.user_id = u.id
		ORDER BY u.created_at DESC
		LIMIT $1 OFFSET $2`, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListCustomersRow
	for rows.Next() {
		var r ListCustomersRow
		if err := rows.Scan(&r.ID, &r.Email, &r.FullName, &r.Phone, &r.IsActive); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
