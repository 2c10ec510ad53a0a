package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const promotionColumns = `id, code, description, discount_type, discount_value,
	starts_at, ends_at, is_active, created_at, updated_at`

func scanPromotion(row interface{ Scan(...interface{}) error }) (Promotion, error) {
	var p Promotion
	err := row.Scan(&p.ID, &p.Code, &p.Description, &p.DiscountType, &p.DiscountValue,
		&p.StartsAt, &p.EndsAt, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (q *Queries) ListPromotions(ctx context.Context) ([]Promotion, error) {
	rows, err := q.db.Query(ctx, `SELECT `+promotionColumns+`
		FROM promotions WHERE is_active = true
		ORDER BY starts_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetRedeemablePromotion resolves a promo code only if it is active and
// inside its validity window right now.
func (q *Queries) GetRedeemablePromotion(ctx context.Context, code string) (Promotion, error) {
	row := q.db.QueryRow(ctx, `SELECT `+promotionColumns+`
		FROM promotions
		WHERE code = $1 AND is_active = true
		  AND starts_at <= now() AND ends_at > now()`, code)
	return scanPromotion(row)
}

type CreatePromotionParams struct {
	Code          string
	Description   pgtype.Text
	DiscountType  string
	DiscountValue int64
	StartsAt      pgtype.Timestamptz
	EndsAt        pgtype.Timestamptz
}

func (q *Queries) CreatePromotion(ctx context.Context, arg CreatePromotionParams) (Promotion, error) {
	row := q.db.QueryRow(ctx, `INSERT INTO promotions
		(code, description, discount_type, discount_value, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+promotionColumns,
		arg.Code, arg.Description, arg.DiscountType, arg.DiscountValue, arg.StartsAt, arg.EndsAt)
	return scanPromotion(row)
}

type UpdatePromotionParams struct {
	ID            uuid.UUID
	Description   pgtype.Text
	DiscountType  string
	DiscountValue int64
	StartsAt      pgtype.Timestamptz
	EndsAt        pgtype.Timestamptz
}

func (q *Queries) UpdatePromotion(ctx context.Context, arg UpdatePromotionParams) (Promotion, error) {
	row := q.db.QueryRow(ctx, `UPDATE promotions
		SET description = $2, discount_type = $3, discount_value = $4,
		    starts_at = $5, ends_at = $6, updated_at = now()
		WHERE id = $1 AND is_active = true
		RETURNING `+promotionColumns,
		arg.ID, arg.Description, arg.DiscountType, arg.DiscountValue, arg.StartsAt, arg.EndsAt)
	return scanPromotion(row)
}

func (q *Queries) SoftDeletePromotion(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `UPDATE promotions
		SET is_active = false, updated_at = now()
		WHERE id = $1 AND is_active = true
		RETURNING id`, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
