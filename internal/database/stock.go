package database

import (
	"context"

	"github.com/google/uuid"
)

func (q *Queries) GetStockLevel(ctx context.Context, mealID uuid.UUID) (StockLevel, error) {
	row := q.db.QueryRow(ctx, `SELECT meal_id, quantity, low_stock_threshold, updated_at
		FROM stock_levels WHERE meal_id = $1`, mealID)
	var s StockLevel
	err := row.Scan(&s.MealID, &s.Quantity, &s.LowStockThreshold, &s.UpdatedAt)
	return s, err
}

type UpsertStockLevelParams struct {
	MealID            uuid.UUID
	Quantity          int32
	LowStockThreshold int32
}

func (q *Queries) UpsertStockLevel(ctx context.Context, arg UpsertStockLevelParams) (StockLevel, error) {
	row := q.db.QueryRow(ctx, `INSERT INTO stock_levels (meal_id, quantity, low_stock_threshold)
		VALUES ($1, $2, $3)
		ON CONFLICT (meal_id) DO UPDATE
		SET quantity = EXCLUDED.quantity,
		    low_stock_threshold = EXCLUDED.low_stock_threshold,
		    updated_at = now()
		RETURNING meal_id, quantity, low_stock_threshold, updated_at`,
		arg.MealID, arg.Quantity, arg.LowStockThreshold)
	var s StockLevel
	err := row.Scan(&s.MealID, &s.Quantity, &s.LowStockThreshold, &s.UpdatedAt)
	return s, err
}

type DecrementStockParams struct {
	MealID   uuid.UUID
	Quantity int32
}

// DecrementStock atomically reserves stock at checkout. The WHERE guard
/// makes oversell impossible: zero rows updated means not enough on hand.
func (q *Queries) DecrementStock(ctx context.Context, arg DecrementStockParams) (StockLevel, error) {
	row := q.db.QueryRow(ctx, `UPDATE stock_levels
		SET quantity = quantity - $2, updated_at = now()
		WHERE meal_id = $1 AND quantity >= $2
		RETURNING meal_id, quantity, low_stock_threshold, updated_at`,
		arg.MealID, arg.Quantity)
	var s StockLevel
	err := row.Scan(&s.MealID, &s.Quantity, &s.LowStockThreshold, &s.UpdatedAt)
	return s, err
}

// ListLowStockRow pairs a stock level with its meal name for the
// back-office low stock report.
type ListLowStockRow struct {
	MealID            uuid.UUID
	MealName          string
	Quantity          int32
	LowStockThreshold int32
}

func (q *Queries) ListLowStock(ctx context.Context) ([]ListLowStockRow, error) {
	rows, err := q.db.Query(ctx, `SELECT s.meal_id, m.name, s.quantity, s.low_stock_threshold
		FROM stock_levels s
		JOIN meals m ON m.id = s.meal_id
		WHERE m.is_active = true AND s.quantity <= s.low_stock_threshold
		ORDER BY s.quantity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListLowStockRow
	for rows.Next() {
		var r ListLowStockRow
		if err := rows.Scan(&r.MealID, &r.MealName, &r.Quantity, &r.LowStockThreshold); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
