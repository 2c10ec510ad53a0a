package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const mealColumns = `id, name, description, price_cents, category, image_url, is_active, created_at, updated_at`

func scanMeal(row interface{ Scan(...interface{}) error }) (Meal, error) {
	var m Meal
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.PriceCents,
		&m.Category, &m.ImageURL, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (q *Queries) ListMeals(ctx context.Context) ([]Meal, error) {
	rows, err := q.db.Query(ctx, `SELECT `+mealColumns+`
		FROM meals WHERE is_active = true
		ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Meal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (q *Queries) GetMeal(ctx context.Context, id uuid.UUID) (Meal, error) {
	row := q.db.QueryRow(ctx, `SELECT `+mealColumns+`
		FROM meals WHERE id = $1 AND is_active = true`, id)
	return scanMeal(row)
}

// GetMealForOrderRow carries exactly what checkout needs: the price
// snapshot and available stock.
type GetMealForOrderRow struct {
	ID         uuid.UUID
	Name       string
	PriceCents int64
	Quantity   int32
}

func (q *Queries) GetMealForOrder(ctx context.Context, id uuid.UUID) (GetMealForOrderRow, error) {
	row := q.db.QueryRow(ctx, `SELECT m.id, m.name, m.price_cents, COALESCE(s.quantity, 0)
		FROM meals m
		LEFT JOIN stock_levels s ON s.meal_id = m.id
		WHERE m.id = $1 AND m.is_active = true`, id)
	var r GetMealForOrderRow
	err := row.Scan(&r.ID, &r.Name, &r.PriceCents, &r.Quantity)
	return r, err
}

type CreateMealParams struct {
	Name        string
	Description pgtype.Text
	PriceCents  int64
	Category    string
	ImageURL    pgtype.Text
}

func (q *Queries) CreateMeal(ctx context.Context, arg CreateMealParams) (Meal, error) {
	row := q.db.QueryRow(ctx, `INSERT INTO meals (name, description, price_cents, category, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+mealColumns,
		arg.Name, arg.Description, arg.PriceCents, arg.Category, arg.ImageURL)
	return scanMeal(row)
}

type UpdateMealParams struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	PriceCents  int64
	Category    string
	ImageURL    pgtype.Text
}

func (q *Queries) UpdateMeal(ctx context.Context, arg UpdateMealParams) (Meal, error) {
	row := q.db.QueryRow(ctx, `UPDATE meals
		SET name = $2, description = $3, price_cents = $4, category = $5, image_url = $6, updated_at = now()
		WHERE id = $1 AND is_active = true
		RETURNING `+mealColumns,
		arg.ID, arg.Name, arg.Description, arg.PriceCents, arg.Category, arg.ImageURL)
	return scanMeal(row)
}

// SoftDeleteMeal hides the meal from the storefront; existing order items
// keep their snapshot.
func (q *Queries) SoftDeleteMeal(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `UPDATE meals
		SET is_active = false, updated_at = now()
		WHERE id = $1 AND is_active = true
		RETURNING id`, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
