package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savora/api/internal/database"
	"github.com/savora/api/internal/enum"
	"github.com/savora/api/internal/orderstatus"
	"github.com/shopspring/decimal"
)

// Errors returned by the order service.
var (
	ErrEmptyItems        = errors.New("items are required")
	ErrInvalidQuantity   = errors.New("quantity must be > 0")
	ErrInvalidMealID     = errors.New("invalid meal_id")
	ErrMealNotFound      = errors.New("meal not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPromoNotFound     = errors.New("promo code not found or expired")
	ErrOrderNotFound     = errors.New("order not found")
	ErrStatusConflict    = errors.New("order status changed, please retry")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to create orders and move them
// through their lifecycle. Satisfied by *database.Queries (and its WithTx
// variant).
type OrderStore interface {
	GetMealForOrder(ctx context.Context, id uuid.UUID) (database.GetMealForOrderRow, error)
	DecrementStock(ctx context.Context, arg database.DecrementStockParams) (database.StockLevel, error)
	GetRedeemablePromotion(ctx context.Context, code string) (database.Promotion, error)
	GetCurrentSaleEvent(ctx context.Context) (database.SaleEvent, error)
	GetNextOrderNumber(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	InsertOutboxEvent(ctx context.Context, arg database.InsertOutboxEventParams) (database.OutboxEvent, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// CheckoutRequest is the validated input for creating an order.
type CheckoutRequest struct {
	CustomerID uuid.UUID
	PromoCode  string
	Items      []CheckoutItemRequest
}

// CheckoutItemRequest is a single cart line.
type CheckoutItemRequest struct {
	MealID   string
	Quantity int32
}

// CheckoutResult is the full created order with its items.
type CheckoutResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService handles order business logic.
type OrderService struct {
	pool       TxBeginner
	newStore   NewOrderStore
	taxRateBps int64
}

// NewOrderService creates a new OrderService. taxRateBps is the sales tax
// rate in basis points.
func NewOrderService(pool TxBeginner, newStore NewOrderStore, taxRateBps int) *OrderService {
	return &OrderService{pool: pool, newStore: newStore, taxRateBps: int64(taxRateBps)}
}

// orderEvent is the outbox payload for order lifecycle events.
type orderEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OrderStatus int16     `json:"order_status"`
	TotalCents  int64     `json:"total_cents"`
}

// Checkout validates the cart, prices it server-side, reserves stock, and
// creates the order atomically. Every financial figure is integer cents;
// percentage math goes through decimal and rounds half-up once, at the
// cent boundary. The order always starts in processing.
func (s *OrderService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		if _, err := uuid.Parse(item.MealID); err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidMealID)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Price items and reserve stock ---
	var subtotalCents int64
	itemParams := make([]database.CreateOrderItemParams, 0, len(req.Items))
	for i, item := range req.Items {
		mealID, _ := uuid.Parse(item.MealID)

		meal, err := store.GetMealForOrder(ctx, mealID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrMealNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get meal: %w", i, err)
		}

		if _, err := store.DecrementStock(ctx, database.DecrementStockParams{
			MealID:   mealID,
			Quantity: item.Quantity,
		}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrInsufficientStock)
			}
			return nil, fmt.Errorf("items[%d]: reserve stock: %w", i, err)
		}

		lineTotal := meal.PriceCents * int64(item.Quantity)
		subtotalCents += lineTotal
		itemParams = append(itemParams, database.CreateOrderItemParams{
			MealID:         mealID,
			MealName:       meal.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: meal.PriceCents,
			LineTotalCents: lineTotal,
		})
	}

	// --- Apply the best running sale event, then the promo code ---
	var discountCents int64
	saleEventID := pgtype.UUID{}
	event, err := store.GetCurrentSaleEvent(ctx)
	switch {
	case err == nil:
		discountCents += percentOf(subtotalCents, int64(event.PercentBps))
		saleEventID = pgtype.UUID{Bytes: event.ID, Valid: true}
	case errors.Is(err, pgx.ErrNoRows):
		// No event running.
	default:
		return nil, fmt.Errorf("get sale event: %w", err)
	}

	promoCode := pgtype.Text{}
	if req.PromoCode != "" {
		promo, err := store.GetRedeemablePromotion(ctx, req.PromoCode)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrPromoNotFound
			}
			return nil, fmt.Errorf("get promotion: %w", err)
		}
		switch promo.DiscountType {
		case enum.DiscountTypePercentage:
			discountCents += percentOf(subtotalCents, promo.DiscountValue)
		default:
			discountCents += promo.DiscountValue
		}
		promoCode = pgtype.Text{String: promo.Code, Valid: true}
	}

	if discountCents > subtotalCents {
		discountCents = subtotalCents
	}

	// --- Tax and total ---
	taxCents := percentOf(subtotalCents-discountCents, s.taxRateBps)
	totalCents := subtotalCents - discountCents + taxCents

	// --- Insert order ---
	nextNum, err := store.GetNextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber:   fmt.Sprintf("SAV-%06d", nextNum),
		CustomerID:    req.CustomerID,
		StatusCode:    int16(orderstatus.Processing),
		SubtotalCents: subtotalCents,
		DiscountCents: discountCents,
		TaxCents:      taxCents,
		TotalCents:    totalCents,
		PromoCode:     promoCode,
		SaleEventID:   saleEventID,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]database.OrderItem, 0, len(itemParams))
	for _, p := range itemParams {
		p.OrderID = order.ID
		item, err := store.CreateOrderItem(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	if err := s.emitOrderEvent(ctx, store, enum.TopicOrderPlaced, order); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CheckoutResult{Order: order, Items: items}, nil
}

// UpdateStatus applies a validated lifecycle transition. The update has an
// optimistic guard on the status the caller read; losing the race returns
// ErrStatusConflict rather than overwriting a concurrent staff action.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, next orderstatus.Status) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	currentStatus, err := orderstatus.FromCode(current.StatusCode)
	if err != nil {
		return database.Order{}, fmt.Errorf("order %s: %w", orderID, err)
	}

	if err := orderstatus.ValidateTransition(currentStatus, next); err != nil {
		return database.Order{}, err
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:                 orderID,
		StatusCode:         int16(next),
		ExpectedStatusCode: current.StatusCode,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrStatusConflict
		}
		return database.Order{}, fmt.Errorf("update order status: %w", err)
	}

	if err := s.emitOrderEvent(ctx, store, enum.TopicOrderStatusChanged, updated); err != nil {
		return database.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	return updated, nil
}

func (s *OrderService) emitOrderEvent(ctx context.Context, store OrderStore, topic string, o database.Order) error {
	payload, err := json.Marshal(orderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		OrderStatus: o.StatusCode,
		TotalCents:  o.TotalCents,
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	if _, err := store.InsertOutboxEvent(ctx, database.InsertOutboxEventParams{
		Topic:   topic,
		Payload: payload,
	}); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// percentOf computes bps basis points of cents, rounded half-up to a cent.
func percentOf(cents, bps int64) int64 {
	return decimal.NewFromInt(cents).
		Mul(decimal.NewFromInt(bps)).
		Div(decimal.NewFromInt(10000)).
		Round(0).
		IntPart()
}
