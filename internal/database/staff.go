package database

import (
	"context"

	"github.com/google/uuid"
)

type CreateStaffProfileParams struct {
	UserID      uuid.UUID
	Permissions int32
}

func (q *Queries) CreateStaffProfile(ctx context.Context, arg CreateStaffProfileParams) (StaffProfile, error) {
	row := q.db.QueryRow(ctx, `INSERT INTO staff_profiles (user_id, permissions)
		VALUES ($1, $2)
		RETURNING user_id, permissions, created_at, updated_at`, arg.UserID, arg.Permissions)
	var p StaffProfile
	err := row.Scan(&p.UserID, &p.Permissions, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (q *Queries) GetStaffProfile(ctx context.Context, userID uuid.UUID) (StaffProfile, error) {
	row := q.db.QueryRow(ctx, `SELECT user_id, permissions, created_at, updated_at
		FROM staff_profiles WHERE user_id = $1`, userID)
	var p StaffProfile
	err := row.Scan(&p.UserID, &p.Permissions, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

type UpdateStaffPermissionsParams struct {
	UserID      uuid.UUID
	Permissions int32
}

func (q *Queries) UpdateStaffPermissions(ctx context.Context, arg UpdateStaffPermissionsParams) (StaffProfile, error) {
	row := q.db.QueryRow(ctx, `UPDATE staff_profiles
		SET permissions = $2, updated_at = now()
		WHERE user_id = $1
		RETURNING user_id, permissions, created_at, updated_at`, arg.UserID, arg.Permissions)
	var p StaffProfile
	err := row.Scan(&p.UserID, &p.Permissions, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListStaffRow joins the account with its permission mask.
type ListStaffRow struct {
	ID          uuid.UUID
	Email       string
	FullName    string
	RoleCode    int16
	Permissions int32
	IsActive    bool
}

func (q *Queries) ListStaff(ctx context.Context) ([]ListStaffRow, error) {
	rows, err := q.db.Query(ctx, `SELECT u.id, u.email, u.full_name, u.role, s.permissions, u.is_active
		FROM user_accounts u
		JOIN staff_profiles s ON s.user_id = u.id
		WHERE u.is_active = true
		ORDER BY u.full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListStaffRow
	for rows.Next() {
		var r ListStaffRow
		if err := rows.Scan(&r.ID, &r.Email, &r.FullName, &r.RoleCode, &r.Permissions, &r.IsActive); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
