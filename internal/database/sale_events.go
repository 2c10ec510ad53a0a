package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const saleEventColumns = `id, name, percent_bps, starts_at, ends_at, is_active, created_at, updated_at`

func scanSaleEvent(row interface{ Scan(...interface{}) error }) (SaleEvent, error) {
	var e SaleEvent
	err := row.Scan(&e.ID, &e.Name, &e.PercentBps, &e.StartsAt, &e.EndsAt,
		&e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (q *Queries) ListSaleEvents(ctx context.Context) ([]SaleEvent, error) {
	rows, err := q.db.Query(ctx, `SELECT `+saleEventColumns+`
		FROM sale_events WHERE is_active = true
		ORDER BY starts_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SaleEvent
	for rows.Next() {
		e, err := scanSaleEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetCurrentSaleEvent returns the deepest discount among events running
// right now. pgx.ErrNoRows when no event is running.
func (q *Queries) GetCurrentSaleEvent(ctx context.Context) (SaleEvent, error) {
	row := q.db.QueryRow(ctx, `SELECT `+saleEventColumns+`
		FROM sale_events
		WHERE is_active = true AND starts_at <= now() AND ends_at > now()
		ORDER BY percent_bps DESC
		LIMIT 1`)
	return scanSaleEvent(row)
}

type CreateSaleEventParams struct {
	Name       string
	PercentBps int32
	StartsAt   pgtype.Timestamptz
	EndsAt     pgtype.Timestamptz
}

func (q *Queries) CreateSaleEvent(ctx context.Context, arg CreateSaleEventParams) (SaleEvent, error) {
	row := q.db.QueryRow(ctx, `INSERT INTO sale_events (name, percent_bps, starts_at, ends_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+saleEventColumns,
		arg.Name, arg.PercentBps, arg.StartsAt, arg.EndsAt)
	return scanSaleEvent(row)
}

type UpdateSaleEventParams struct {
	ID         uuid.UUID
	Name       string
	PercentBps int32
	StartsAt   pgtype.Timestamptz
	EndsAt     pgtype.Timestamptz
}

func (q *Queries) UpdateSaleEvent(ctx context.Context, arg UpdateSaleEventParams) (SaleEvent, error) {
	row := q.db.QueryRow(ctx, `UPDATE sale_events
		SET name = $2, percent_bps = $3, starts_at = $4, ends_at = $5, updated_at = now()
		WHERE id = $1 AND is_active = true
		RETURNING `+saleEventColumns,
		arg.ID, arg.Name, arg.PercentBps, arg.StartsAt, arg.EndsAt)
	return scanSaleEvent(row)
}

func (q *Queries) SoftDeleteSaleEvent(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `UPDATE sale_events
		SET is_active = false, updated_at = now()
		WHERE id = $1 AND is_active = true
		RETURNING id`, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
