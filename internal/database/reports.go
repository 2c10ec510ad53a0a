package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Refunded orders (status 3) are excluded from revenue figures.

type GetDailySalesParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type GetDailySalesRow struct {
	Day           time.Time
	OrderCount    int64
	GrossCents    int64
	DiscountCents int64
	NetCents      int64
}

func (q *Queries) GetDailySales(ctx context.Context, arg GetDailySalesParams) ([]GetDailySalesRow, error) {
	rows, err := q.db.Query(ctx, `SELECT date_trunc('day', created_at) AS day,
		COUNT(*),
		COALESCE(SUM(subtotal_cents), 0),
		COALESCE(SUM(discount_cents), 0),
		COALESCE(SUM(total_cents), 0)
		FROM orders
		WHERE status <> 3
		  AND ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at < $2)
		GROUP BY day
		ORDER BY day DESC`, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GetDailySalesRow
	for rows.Next() {
		var r GetDailySalesRow
		if err := rows.Scan(&r.Day, &r.OrderCount, &r.GrossCents, &r.DiscountCents, &r.NetCents); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type GetMealSalesParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	Limit     int32
}

type GetMealSalesRow struct {
	MealID       uuid.UUID
	MealName     string
	QuantitySold int64
	RevenueCents int64
}

func (q *Queries) GetMealSales(ctx context.Context, arg GetMealSalesParams) ([]GetMealSalesRow, error) {
	rows, err := q.db.Query(ctx, `SELECT i.meal_id, i.meal_name,
		COALESCE(SUM(i.quantity), 0),
		COALESCE(SUM(i.line_total_cents), 0)
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE o.status <> 3
		  AND ($1::timestamptz IS NULL OR o.created_at >= $1)
		  AND ($2::timestamptz IS NULL OR o.created_at < $2)
		GROUP BY i.meal_id, i.meal_name
		ORDER BY SUM(i.line_total_cents) DESC
		LIMIT $3`, arg.StartDate, arg.EndDate, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GetMealSalesRow
	for rows.Next() {
		var r GetMealSalesRow
		if err := rows.Scan(&r.MealID, &r.MealName, &r.QuantitySold, &r.RevenueCents); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
