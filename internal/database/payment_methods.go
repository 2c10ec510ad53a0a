package database

import (
	"context"

	"github.com/google/uuid"
)

const paymentMethodColumns = `id, customer_id, kind, label, masked_detail, is_default, created_at`

func scanPaymentMethod(row interface{ Scan(...interface{}) error }) (PaymentMethod, error) {
	var p PaymentMethod
	err := row.Scan(&p.ID, &p.CustomerID, &p.Kind, &p.Label, &p.MaskedDetail,
		&p.IsDefault, &p.CreatedAt)
	return p, err
}

func (q *Queries) ListPaymentMethodsByCustomer(ctx context.Context, customerID uuid.UUID) ([]PaymentMethod, error) {
	rows, err := q.db.Query(ctx, `SELECT `+paymentMethodColumns+`
		FROM payment_methods WHERE customer_id = $1
		ORDER BY is_default DESC, created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PaymentMethod
	for rows.Next() {
		p, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type CreatePaymentMethodParams struct {
	CustomerID   uuid.UUID
	Kind         string
	Label        string
	MaskedDetail string
	IsDefault    bool
}

func (q *Queries) CreatePaymentMethod(ctx context.Context, arg CreatePaymentMethodParams) (PaymentMethod, error) {
	row := q.db.QueryRow(ctx, `INSERT INTO payment_methods (customer_id, kind, label, masked_detail, is_default)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+paymentMethodColumns,
		arg.CustomerID, arg.Kind, arg.Label, arg.MaskedDetail, arg.IsDefault)
	return scanPaymentMethod(row)
}

// ClearDefaultPaymentMethods unsets any existing default before a new one
// is marked default.
func (q *Queries) ClearDefaultPaymentMethods(ctx context.Context, customerID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `UPDATE payment_methods
		SET is_default = false
		WHERE customer_id = $1 AND is_default = true`, customerID)
	return err
}

type DeletePaymentMethodParams struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
}

func (q *Queries) DeletePaymentMethod(ctx context.Context, arg DeletePaymentMethodParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `DELETE FROM payment_methods
		WHERE id = $1 AND customer_id = $2
		RETURNING id`, arg.ID, arg.CustomerID)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
