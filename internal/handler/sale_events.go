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
)

// SaleEventStore defines the database methods needed by sale event
// handlers. Satisfied by *database.Queries; narrow interface for
// testability.
type SaleEventStore interface {
	ListSaleEvents(ctx context.Context) ([]database.SaleEvent, error)
	CreateSaleEvent(ctx context.Context, arg database.CreateSaleEventParams) (database.SaleEvent, error)
	UpdateSaleEvent(ctx context.Context, arg database.UpdateSaleEventParams) (database.SaleEvent, error)
	SoftDeleteSaleEvent(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// SaleEventHandler handles staff seasonal discount management.
type SaleEventHandler struct {
	store SaleEventStore
}

// NewSaleEventHandler creates a new SaleEventHandler.
func NewSaleEventHandler(store SaleEventStore) *SaleEventHandler {
	return &SaleEventHandler{store: store}
}

// RegisterRoutes registers sale event endpoints. Expected to be mounted
// behind the seasonal discount capability check.
func (h *SaleEventHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type saleEventRequest struct {
	Name       string `json:"name"`
	PercentBps *int32 `json:"percent_bps"`
	StartsAt   string `json:"starts_at"`
	EndsAt     string `json:"ends_at"`
}

type saleEventResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	PercentBps int32     `json:"percent_bps"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toSaleEventResponse(e database.SaleEvent) saleEventResponse {
	return saleEventResponse{
		ID:         e.ID,
		Name:       e.Name,
		PercentBps: e.PercentBps,
		StartsAt:   e.StartsAt,
		EndsAt:     e.EndsAt,
		IsActive:   e.IsActive,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// validateSaleEventRequest returns an error message for the response
// body, or "" when valid.
func validateSaleEventRequest(req saleEventRequest) (start, end pgtype.Timestamptz, msg string) {
	if req.Name == "" {
		return start, end, "name is required"
	}
	if req.PercentBps == nil {
		return start, end, "percent_bps is required"
	}
	if *req.PercentBps <= 0 || *req.PercentBps > 10000 {
		return start, end, "percent_bps must be between 1 and 10000"
	}
	if req.StartsAt == "" || req.EndsAt == "" {
		return start, end, "starts_at and ends_at are required"
	}
	startTime, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return start, end, "invalid starts_at"
	}
	endTime, err := time.Parse(time.RFC3339, req.EndsAt)
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

// List returns all sale events, past and scheduled.
func (h *SaleEventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.ListSaleEvents(r.Context())
	if err != nil {
		log.Printf("ERROR: list sale events: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]saleEventResponse, len(events))
	for i, e := range events {
		resp[i] = toSaleEventResponse(e)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create schedules a new storewide sale.
func (h *SaleEventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req saleEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	start, end, msg := validateSaleEventRequest(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	event, err := h.store.CreateSaleEvent(r.Context(), database.CreateSaleEventParams{
		Name:       req.Name,
		PercentBps: *req.PercentBps,
		StartsAt:   start,
		EndsAt:     end,
	})
	if err != nil {
		log.Printf("ERROR: create sale event: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toSaleEventResponse(event))
}

// Update modifies an existing sale event.
func (h *SaleEventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sale event ID"})
		return
	}

	var req saleEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	start, end, msg := validateSaleEventRequest(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	event, err := h.store.UpdateSaleEvent(r.Context(), database.UpdateSaleEventParams{
		ID:         id,
		Name:       req.Name,
		PercentBps: *req.PercentBps,
		StartsAt:   start,
		EndsAt:     end,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "sale event not found"})
			return
		}
		log.Printf("ERROR: update sale event: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toSaleEventResponse(event))
}

// Delete cancels a sale event. Orders placed while it ran keep their
// discount.
func (h *SaleEventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sale event ID"})
		return
	}

	if _, err := h.store.SoftDeleteSaleEvent(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "sale event not found"})
			return
		}
		log.Printf("ERROR: delete sale event: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
