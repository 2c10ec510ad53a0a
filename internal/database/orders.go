package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, customer_id, status, subtotal_cents, discount_cents,
	tax_cents, total_cents, promo_code, sale_event_id, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.StatusCode,
		&o.SubtotalCents, &o.DiscountCents, &o.TaxCents, &o.TotalCents,
		&o.PromoCode, &o.SaleEventID, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// GetNextOrderNumber returns the next sequence value used to build the
// human-readable order number.
func (q *Queries) GetNextOrderNumber(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, `SELECT nextval('order_number_seq')`)
	var n int64
	err := row.Scan(&n)
	return n, err
}

type CreateOrderParams struct {
	OrderNumber   string
	CustomerID    uuid.UUID
	StatusCode    int16
	SubtotalCents int64
	DiscountCents int64
	TaxCents      int64
	TotalCents    int64
	PromoCode     pgtype.Text
	SaleEventID   pgtype.UUID
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `INSERT INTO orders
		(order_number, customer_id, status, subtotal_cents, discount_cents, tax_cents, total_cents, promo_code, sale_event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+orderColumns,
		arg.OrderNumber, arg.CustomerID, arg.StatusCode, arg.SubtotalCents,
		arg.DiscountCents, arg.TaxCents, arg.TotalCents, arg.PromoCode, arg.SaleEventID)
	return scanOrder(row)
}

type CreateOrderItemParams struct {
	OrderID        uuid.UUID
	MealID         uuid.UUID
	MealName       string
	Quantity       int32
	UnitPriceCents int64
	LineTotalCents int64
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `INSERT INTO order_items
		(order_id, meal_id, meal_name, quantity, unit_price_cents, line_total_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, order_id, meal_id, meal_name, quantity, unit_price_cents, line_total_cents`,
		arg.OrderID, arg.MealID, arg.MealName, arg.Quantity, arg.UnitPriceCents, arg.LineTotalCents)
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.MealID, &it.MealName,
		&it.Quantity, &it.UnitPriceCents, &it.LineTotalCents)
	return it, err
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

type GetOrderForCustomerParams struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
}

func (q *Queries) GetOrderForCustomer(ctx context.Context, arg GetOrderForCustomerParams) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+`
		FROM orders WHERE id = $1 AND customer_id = $2`, arg.ID, arg.CustomerID)
	return scanOrder(row)
}

type ListOrdersByCustomerParams struct {
	CustomerID uuid.UUID
	Limit      int32
	Offset     int32
}

func (q *Queries) ListOrdersByCustomer(ctx context.Context, arg ListOrdersByCustomerParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `SELECT `+orderColumns+`
		FROM orders WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, arg.CustomerID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type ListOrdersParams struct {
	StatusCode pgtype.Int2
	StartDate  pgtype.Timestamptz
	EndDate    pgtype.Timestamptz
	Limit      int32
	Offset     int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `SELECT `+orderColumns+`
		FROM orders
		WHERE ($1::smallint IS NULL OR status = $1)
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at < $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`,
		arg.StatusCode, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `SELECT id, order_id, meal_id, meal_name, quantity, unit_price_cents, line_total_cents
		FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MealID, &it.MealName,
			&it.Quantity, &it.UnitPriceCents, &it.LineTotalCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

type UpdateOrderStatusParams struct {
	ID                 uuid.UUID
	StatusCode         int16
	ExpectedStatusCode int16
}

/// UpdateOrderStatus applies a status transition with an optimistic guard:
// the row only changes if it is still in the status the caller read.
// pgx.ErrNoRows from the RETURNING scan means a concurrent update won.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, `UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING `+orderColumns,
		arg.ID, arg.StatusCode, arg.ExpectedStatusCode)
	return scanOrder(row)
}
