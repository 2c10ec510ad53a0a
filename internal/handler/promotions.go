package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savora/api/internal/database"
	"github.com/savora/api/internal/enum"
)

// PromotionStore defines the database methods needed by promotion
// handlers. Satisfied by *database.Queries; narrow interface for
// testability.
type PromotionStore interface {
	ListPromotions(ctx context.Context) ([]database.Promotion, error)
	CreatePromotion(ctx context.Context, arg database.CreatePromotionParams) (database.Promotion, error)
	UpdatePromotion(ctx context.Context, arg database.UpdatePromotionParams) (database.Promotion, error)
	SoftDeletePromotion(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// PromotionHandler handles staff promo code management.
type PromotionHandler struct {
	store PromotionStore
}

// NewPromotionHandler creates a new PromotionHandler.
func NewPromotionHandler(store PromotionStore) *PromotionHandler {
	return &PromotionHandler{store: store}
}

// RegisterRoutes registers promotion endpoints. Expected to be mounted
// behind the promo code capability check.
func (h *PromotionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createPromotionRequest struct {
	Code          string `json:"code"`
	Description   string `json:"description"`
	DiscountType  string `json:"discount_type"`
	DiscountValue *int64 `json:"discount_value"`
	StartsAt      string `json:"starts_at"`
	EndsAt        string `json:"ends_at"`
}

type updatePromotionRequest struct {
	Description   string `json:"description"`
	DiscountType  string `json:"discount_type"`
	DiscountValue *int64 `json:"discount_value"`
	StartsAt      string `json:"starts_at"`
	EndsAt        string `json:"ends_at"`
}

type promotionResponse struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	Description   *string   `json:"description"`
	DiscountType  string    `json:"discount_type"`
	DiscountValue int64     `json:"discount_value"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toPromotionResponse(p database.Promotion) promotionResponse {
	resp := promotionResponse{
		ID:            p.ID,
		Code:          p.Code,
		DiscountType:  p.DiscountType,
		DiscountValue: p.DiscountValue,
		StartsAt:      p.StartsAt,
		EndsAt:        p.EndsAt,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Description.Valid {
		resp.Description = &p.Description.String
	}
	return resp
}

// --- Helpers ---

func isValidDiscountType(t string) bool {
	return t == enum.DiscountTypePercentage || t == enum.DiscountTypeFixed
}

// parsePromotionWindow validates the discount fields and the redemption
// window shared by create and update. Returns an error message for the
// response body, or "" when valid.
func parsePromotionWindow(discountType string, discountValue *int64, startsAt, endsAt string) (start, end pgtype.Timestamptz, msg string) {
	if discountType == "" {
		return start, end, "discount_type is required"
	}
	if !isValidDiscountType(discountType) {
		return start, end, "invalid discount_type"
	}
	if discountValue == nil {
		return start, end, "discount_value is required"
	}
	if *discountValue <= 0 {
		return start, end, "discount_value must be > 0"
	}
	if discountType == enum.DiscountTypePercentage && *discountValue > 10000 {
		return start, end, "discount_value must be <= 10000 basis points"
	}

	if startsAt == "" || endsAt == "" {
		return start, end, "starts_at and ends_at are required"
	}
	startTime, err := time.Parse(time.RFC3339, startsAt)
	if err != nil {
		return start, end, "invalid starts_at"
	}
	endTime, err := time.Parse(time.RFC3339, endsAt)
	if err != nil {
		return start, end, "invalid ends_at"
	}
	if !endTime.After(startTime) {
		return start, end, "ends_at must be after starts_at"
	}

	start = pgtype.Timestamptz{Time: startTime, Valid: true}
	end = pgtype.Timestamptz{Time: endTime, Valid: true}
	return start, end, ""
}

// --- Handlers ---

// List returns all promotions, including expired ones.
func (h *PromotionHandler) List(w http.ResponseWriter, r *http.Request) {
	promos, err := h.store.ListPromotions(r.Context())
	if err != nil {
		log.Printf("ERROR: list promotions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]promotionResponse, len(promos))
	for i, p := range promos {
		resp[i] = toPromotionResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new promo code.
func (h *PromotionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return
	}

	start, end, msg := parsePromotionWindow(req.DiscountType, req.DiscountValue, req.StartsAt, req.EndsAt)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	desc := pgtype.Text{}
	if req.Description != "" {
		desc = pgtype.Text{String: req.Description, Valid: true}
	}

	promo, err := h.store.CreatePromotion(r.Context(), database.CreatePromotionParams{
		Code:          req.Code,
		Description:   desc,
		DiscountType:  req.DiscountType,
		DiscountValue: *req.DiscountValue,
		StartsAt:      start,
		EndsAt:        end,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "promo code already exists"})
			return
		}
		log.Printf("ERROR: create promotion: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toPromotionResponse(promo))
}

// Update modifies an existing promotion. The code itself is immutable so
// printed material stays valid.
func (h *PromotionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid promotion ID"})
		return
	}

	var req updatePromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	start, end, msg := parsePromotionWindow(req.DiscountType, req.DiscountValue, req.StartsAt, req.EndsAt)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	desc := pgtype.Text{}
	if req.Description != "" {
		desc = pgtype.Text{String: req.Description, Valid: true}
	}

	promo, err := h.store.UpdatePromotion(r.Context(), database.UpdatePromotionParams{
		ID:            id,
		Description:   desc,
		DiscountType:  req.DiscountType,
		DiscountValue: *req.DiscountValue,
		StartsAt:      start,
		EndsAt:        end,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "promotion not found"})
			return
		}
		log.Printf("ERROR: update promotion: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toPromotionResponse(promo))
}

// Delete deactivates a promotion. Orders that already redeemed it keep
// their discount.
func (h *PromotionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid promotion ID"})
		return
	}

	if _, err := h.store.SoftDeletePromotion(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "promotion not found"})
			return
		}
		log.Printf("ERROR: delete promotion: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
