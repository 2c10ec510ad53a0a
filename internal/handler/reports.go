package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savora/api/internal/database"
)

// ReportStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportStore interface {
	GetDailySales(ctx context.Context, arg database.GetDailySalesParams) ([]database.GetDailySalesRow, error)
	GetMealSales(ctx context.Context, arg database.GetMealSalesParams) ([]database.GetMealSalesRow, error)
}

// ReportHandler handles staff sales reporting.
type ReportHandler struct {
	store ReportStore
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// RegisterRoutes registers report endpoints. Expected to be mounted
// behind the reports capability check.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/daily-sales", h.DailySales)
	r.Get("/meal-sales", h.MealSales)
}

// --- Response types ---

type dailySalesRow struct {
	Day           string `json:"day"`
	OrderCount    int64  `json:"order_count"`
	GrossCents    int64  `json:"gross_cents"`
	DiscountCents int64  `json:"discount_cents"`
	NetCents      int64  `json:"net_cents"`
}

type mealSalesRow struct {
	MealID       uuid.UUID `json:"meal_id"`
	MealName     string    `json:"meal_name"`
	QuantitySold int64     `json:"quantity_sold"`
	RevenueCents int64     `json:"revenue_cents"`
}

// --- Helpers ---

// parseDateRange reads optional from/to query params. An absent bound
// leaves the filter open on that side.
func parseDateRange(r *http.Request) (start, end pgtype.Timestamptz, msg string) {
	if raw := r.URL.Query().Get("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, "invalid from timestamp"
		}
		start = pgtype.Timestamptz{Time: ts, Valid: true}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, "invalid to timestamp"
		}
		end = pgtype.Timestamptz{Time: ts, Valid: true}
	}
	if start.Valid && end.Valid && end.Time.Before(start.Time) {
		return start, end, "to must be after from"
	}
	return start, end, ""
}

// --- Handlers ---

// DailySales returns revenue totals grouped by day. Refunded orders are
// excluded from every figure.
func (h *ReportHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	start, end, msg := parseDateRange(r)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	rows, err := h.store.GetDailySales(r.Context(), database.GetDailySalesParams{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		log.Printf("ERROR: daily sales report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]dailySalesRow, len(rows))
	for i, row := range rows {
		resp[i] = dailySalesRow{
			Day:           row.Day.Format("2006-01-02"),
			OrderCount:    row.OrderCount,
			GrossCents:    row.GrossCents,
			DiscountCents: row.DiscountCents,
			NetCents:      row.NetCents,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// MealSales returns the best-selling meals by revenue.
func (h *ReportHandler) MealSales(w http.ResponseWriter, r *http.Request) {
	start, end, msg := parseDateRange(r)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	limit := int32(10)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n <= 0 || n > 100 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 100"})
			return
		}
		limit = int32(n)
	}

	rows, err := h.store.GetMealSales(r.Context(), database.GetMealSalesParams{
		StartDate: start,
		EndDate:   end,
		Limit:     limit,
	})
	if err != nil {
		log.Printf("ERROR: meal sales report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]mealSalesRow, len(rows))
	for i, row := range rows {
		resp[i] = mealSalesRow{
			MealID:       row.MealID,
			MealName:     row.MealName,
			QuantitySold: row.QuantitySold,
			RevenueCents: row.RevenueCents,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
