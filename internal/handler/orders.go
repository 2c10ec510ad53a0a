package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savora/api/internal/database"
	"github.com/savora/api/internal/middleware"
	"github.com/savora/api/internal/orderstatus"
	"github.com/savora/api/internal/service"
)

// OrderServicer is the business-logic surface the order handlers call.
// Satisfied by *service.OrderService.
type OrderServicer interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next orderstatus.Status) (database.Order, error)
}

// OrderStore defines the read-side database methods for order handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForCustomer(ctx context.Context, arg database.GetOrderForCustomerParams) (database.Order, error)
	ListOrdersByCustomer(ctx context.Context, arg database.ListOrdersByCustomerParams) ([]database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// OrderHandler handles customer checkout/history and staff order
// management.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// RegisterCustomerRoutes registers the storefront order endpoints.
// Expected to be mounted behind authentication.
func (h *OrderHandler) RegisterCustomerRoutes(r chi.Router) {
	r.Post("/", h.Checkout)
	r.Get("/", h.ListMine)
	r.Get("/{id}", h.GetMine)
}

// RegisterStaffRoutes registers order management endpoints. Expected to
// be mounted behind the orders capability check.
func (h *OrderHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type checkoutRequest struct {
	Items     []checkoutItemRequest `json:"items"`
	PromoCode string                `json:"promo_code"`
}

type checkoutItemRequest struct {
	MealID   string `json:"meal_id"`
	Quantity int32  `json:"quantity"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderItemResponse struct {
	MealID         uuid.UUID `json:"meal_id"`
	MealName       string    `json:"meal_name"`
	Quantity       int32     `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	LineTotalCents int64     `json:"line_total_cents"`
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	Status        string              `json:"status"`
	SubtotalCents int64               `json:"subtotal_cents"`
	DiscountCents int64               `json:"discount_cents"`
	TaxCents      int64               `json:"tax_cents"`
	TotalCents    int64               `json:"total_cents"`
	PromoCode     *string             `json:"promo_code"`
	SaleEventID   *uuid.UUID          `json:"sale_event_id"`
	Items         []orderItemResponse `json:"items,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerID:    o.CustomerID,
		Status:        orderstatus.Status(o.StatusCode).String(),
		SubtotalCents: o.SubtotalCents,
		DiscountCents: o.DiscountCents,
		TaxCents:      o.TaxCents,
		TotalCents:    o.TotalCents,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.PromoCode.Valid {
		resp.PromoCode = &o.PromoCode.String
	}
	if o.SaleEventID.Valid {
		id := uuid.UUID(o.SaleEventID.Bytes)
		resp.SaleEventID = &id
	}
	for _, item := range items {
		resp.Items = append(resp.Items, orderItemResponse{
			MealID:         item.MealID,
			MealName:       item.MealName,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents,
		})
	}
	return resp
}

// --- Customer handlers ---

// Checkout creates an order from the authenticated customer's cart.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	items := make([]service.CheckoutItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.CheckoutItemRequest{MealID: item.MealID, Quantity: item.Quantity}
	}

	result, err := h.svc.Checkout(r.Context(), service.CheckoutRequest{
		CustomerID: identity.UserID,
		PromoCode:  req.PromoCode,
		Items:      items,
	})
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(result.Order, result.Items))
}

func (h *OrderHandler) writeCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidMealID),
		errors.Is(err, service.ErrPromoNotFound):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrMealNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: checkout: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// ListMine returns the authenticated customer's order history, newest
// first.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	limit, offset := parsePagination(r, 20)

	orders, err := h.store.ListOrdersByCustomer(r.Context(), database.ListOrdersByCustomerParams{
		CustomerID: identity.UserID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		log.Printf("ERROR: list customer orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, nil)
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetMine returns one of the authenticated customer's orders with its
// items. Another customer's order is indistinguishable from a missing
// one.
func (h *OrderHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrderForCustomer(r.Context(), database.GetOrderForCustomerParams{
		ID:         id,
		CustomerID: identity.UserID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get customer order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.respondWithItems(w, r, order)
}

// --- Staff handlers ---

// List returns orders filtered by status and date range.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var params database.ListOrdersParams

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := orderstatus.FromName(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		params.StatusCode = pgtype.Int2{Int16: int16(status), Valid: true}
	}

	if raw := r.URL.Query().Get("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from timestamp"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: ts, Valid: true}
	}

	if raw := r.URL.Query().Get("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to timestamp"})
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: ts, Valid: true}
	}

	params.Limit, params.Offset = parsePagination(r, 50)

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, nil)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns any order with its items.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.respondWithItems(w, r, order)
}

// UpdateStatus moves an order along its lifecycle. Illegal transitions
// and lost concurrent updates both come back as 409.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	next, err := orderstatus.FromName(req.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), id, next)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, orderstatus.ErrInvalidTransition):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrStatusConflict):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: update order status: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}

// --- Helpers ---

func (h *OrderHandler) respondWithItems(w http.ResponseWriter, r *http.Request, order database.Order) {
	items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// parsePagination reads limit/offset query params with a per-endpoint
// default page size. Limit is capped at 100.
func parsePagination(r *http.Request, defaultLimit int32) (limit, offset int32) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 32); err == nil && n > 0 {
			limit = int32(n)
		}
	}
	if limit > 100 {
		limit = 100
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 32); err == nil && n >= 0 {
			offset = int32(n)
		}
	}
	return limit, offset
}
