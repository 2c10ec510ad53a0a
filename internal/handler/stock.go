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
	"github.com/savora/api/internal/database"
)

// StockStore defines the database methods needed by stock handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type StockStore interface {
	GetStockLevel(ctx context.Context, mealID uuid.UUID) (database.StockLevel, error)
	UpsertStockLevel(ctx context.Context, arg database.UpsertStockLevelParams) (database.StockLevel, error)
	ListLowStock(ctx context.Context) ([]database.ListLowStockRow, error)
}

// StockHandler handles staff stock control endpoints.
type StockHandler struct {
	store StockStore
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(store StockStore) *StockHandler {
	return &StockHandler{store: store}
}

// RegisterRoutes registers stock endpoints. Expected to be mounted behind
// the stock control capability check.
func (h *StockHandler) RegisterRoutes(r chi.Router) {
	r.Get("/low", h.ListLow)
	r.Get("/{mealID}", h.Get)
	r.Put("/{mealID}", h.Upsert)
}

// --- Request / Response types ---

type upsertStockRequest struct {
	Quantity          *int32 `json:"quantity"`
	LowStockThreshold *int32 `json:"low_stock_threshold"`
}

type stockResponse struct {
	MealID            uuid.UUID `json:"meal_id"`
	Quantity          int32     `json:"quantity"`
	LowStockThreshold int32     `json:"low_stock_threshold"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toStockResponse(s database.StockLevel) stockResponse {
	return stockResponse{
		MealID:            s.MealID,
		Quantity:          s.Quantity,
		LowStockThreshold: s.LowStockThreshold,
		UpdatedAt:         s.UpdatedAt,
	}
}

type lowStockResponse struct {
	MealID            uuid.UUID `json:"meal_id"`
	MealName          string    `json:"meal_name"`
	Quantity          int32     `json:"quantity"`
	LowStockThreshold int32     `json:"low_stock_threshold"`
}

// --- Handlers ---

// Get returns the stock level for a meal.
func (h *StockHandler) Get(w http.ResponseWriter, r *http.Request) {
	mealID, err := uuid.Parse(chi.URLParam(r, "mealID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid meal ID"})
		return
	}

	level, err := h.store.GetStockLevel(r.Context(), mealID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "stock level not found"})
			return
		}
		log.Printf("ERROR: get stock level: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toStockResponse(level))
}

// Upsert sets the absolute stock quantity for a meal. This replaces the
// count rather than adding to it, so a stocktake can correct drift.
func (h *StockHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	mealID, err := uuid.Parse(chi.URLParam(r, "mealID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid meal ID"})
		return
	}

	var req upsertStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Quantity == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity is required"})
		return
	}
	if *req.Quantity < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be >= 0"})
		return
	}

	threshold := int32(0)
	if req.LowStockThreshold != nil {
		if *req.LowStockThreshold < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "low_stock_threshold must be >= 0"})
			return
		}
		threshold = *req.LowStockThreshold
	}

	level, err := h.store.UpsertStockLevel(r.Context(), database.UpsertStockLevelParams{
		MealID:            mealID,
		Quantity:          *req.Quantity,
		LowStockThreshold: threshold,
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "meal not found"})
			return
		}
		log.Printf("ERROR: upsert stock level: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toStockResponse(level))
}

// ListLow returns meals at or below their low stock threshold.
func (h *StockHandler) ListLow(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListLowStock(r.Context())
	if err != nil {
		log.Printf("ERROR: list low stock: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]lowStockResponse, len(rows))
	for i, row := range rows {
		resp[i] = lowStockResponse{
			MealID:            row.MealID,
			MealName:          row.MealName,
			Quantity:          row.Quantity,
			LowStockThreshold: row.LowStockThreshold,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
