package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// UserAccount is a login identity. RoleCode uses the rbac role encoding
// (0=customer, 1=staff, 2=admin).
type UserAccount struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	FullName       string
	RoleCode       int16
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StaffProfile extends a staff/admin user account with its capability
// bitmask (bits 0-5, see internal/rbac).
type StaffProfile struct {
	UserID      uuid.UUID
	Permissions int32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CustomerProfile extends a customer user account.
type CustomerProfile struct {
	UserID    uuid.UUID
	Phone     pgtype.Text
	Address   pgtype.Text
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Meal is a menu entry. Prices are integer cents.
type Meal struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	PriceCents  int64
	Category    string
	ImageURL    pgtype.Text
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StockLevel tracks on-hand quantity per meal.
type StockLevel struct {
	MealID            uuid.UUID
	Quantity          int32
	LowStockThreshold int32
	UpdatedAt         time.Time
}

// Order financial fields are integer cents, immutable after creation.
// StatusCode uses the orderstatus encoding (0=processing, 1=delivered,
// 2=shipped, 3=refunded).
type Order struct {
	ID            uuid.UUID
	OrderNumber   string
	CustomerID    uuid.UUID
	StatusCode    int16
	SubtotalCents int64
	DiscountCents int64
	TaxCents      int64
	TotalCents    int64
	PromoCode     pgtype.Text
	SaleEventID   pgtype.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem snapshots the meal name and unit price at checkout time.
type OrderItem struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	MealID         uuid.UUID
	MealName       string
	Quantity       int32
	UnitPriceCents int64
	LineTotalCents int64
}

// Promotion is a redeemable promo code. DiscountValue is basis points for
// PERCENTAGE promotions and cents for FIXED_AMOUNT ones.
type Promotion struct {
	ID            uuid.UUID
	Code          string
	Description   pgtype.Text
	DiscountType  string
	DiscountValue int64
	StartsAt      time.Time
	EndsAt        time.Time
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SaleEvent is a storewide seasonal discount. PercentBps is basis points
// (1000 = 10% off).
type SaleEvent struct {
	ID         uuid.UUID
	Name       string
	PercentBps int32
	StartsAt   time.Time
	EndsAt     time.Time
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PaymentMethod is a customer-owned tender. Only a masked detail is ever
// stored, never a full card number.
type PaymentMethod struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	Kind         string
	Label        string
	MaskedDetail string
	IsDefault    bool
	CreatedAt    time.Time
}

// OutboxEvent is a pending domain event written in the same transaction
// as the state change it describes.
type OutboxEvent struct {
	ID          int64
	Topic       string
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt pgtype.Timestamptz
}
