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

// MealStore defines the database methods needed by meal handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MealStore interface {
	ListMeals(ctx context.Context) ([]database.Meal, error)
	GetMeal(ctx context.Context, id uuid.UUID) (database.Meal, error)
	CreateMeal(ctx context.Context, arg database.CreateMealParams) (database.Meal, error)
	UpdateMeal(ctx context.Context, arg database.UpdateMealParams) (database.Meal, error)
	SoftDeleteMeal(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// MealHandler handles the public menu and staff meal management.
type MealHandler struct {
	store MealStore
}

// NewMealHandler creates a new MealHandler.
func NewMealHandler(store MealStore) *MealHandler {
	return &MealHandler{store: store}
}

// RegisterPublicRoutes registers the browse endpoints. No auth required.
func (h *MealHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

// RegisterStaffRoutes registers meal management endpoints. Expected to be
// mounted behind the meal management capability check.
func (h *MealHandler) RegisterStaffRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type mealRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  *int64 `json:"price_cents"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
}

type mealResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Category    string    `json:"category"`
	ImageURL    *string   `json:"image_url"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toMealResponse(m database.Meal) mealResponse {
	resp := mealResponse{
		ID:         m.ID,
		Name:       m.Name,
		PriceCents: m.PriceCents,
		Category:   m.Category,
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.Description.Valid {
		resp.Description = &m.Description.String
	}
	if m.ImageURL.Valid {
		resp.ImageURL = &m.ImageURL.String
	}
	return resp
}

// --- Helpers ---

func isValidMealCategory(category string) bool {
	switch category {
	case enum.MealCategoryStarter, enum.MealCategoryMain, enum.MealCategorySide,
		enum.MealCategoryDessert, enum.MealCategoryDrink:
		return true
	}
	return false
}

// validateMealRequest checks required fields and returns an error message
// suitable for the response body, or "" when valid.
func validateMealRequest(req mealRequest) string {
	if req.Name == "" {
		return "name is required"
	}
	if req.PriceCents == nil {
		return "price_cents is required"
	}
	if *req.PriceCents < 0 {
		return "price_cents must be >= 0"
	}
	if req.Category == "" {
		return "category is required"
	}
	if !isValidMealCategory(req.Category) {
		return "invalid category"
	}
	return ""
}

// --- Handlers ---

// List returns all active meals on the menu.
func (h *MealHandler) List(w http.ResponseWriter, r *http.Request) {
	meals, err := h.store.ListMeals(r.Context())
	if err != nil {
		log.Printf("ERROR: list meals: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]mealResponse, len(meals))
	for i, m := range meals {
		resp[i] = toMealResponse(m)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single meal by ID.
func (h *MealHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid meal ID"})
		return
	}

	meal, err := h.store.GetMeal(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "meal not found"})
			return
		}
		log.Printf("ERROR: get meal: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMealResponse(meal))
}

// Create adds a new meal to the menu.
func (h *MealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req mealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if msg := validateMealRequest(req); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	desc := pgtype.Text{}
	if req.Description != "" {
		desc = pgtype.Text{String: req.Description, Valid: true}
	}
	imageURL := pgtype.Text{}
	if req.ImageURL != "" {
		imageURL = pgtype.Text{String: req.ImageURL, Valid: true}
	}

	meal, err := h.store.CreateMeal(r.Context(), database.CreateMealParams{
		Name:        req.Name,
		Description: desc,
		PriceCents:  *req.PriceCents,
		Category:    req.Category,
		ImageURL:    imageURL,
	})
	if err != nil {
		log.Printf("ERROR: create meal: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toMealResponse(meal))
}

// Update modifies an existing meal.
func (h *MealHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid meal ID"})
		return
	}

	var req mealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if msg := validateMealRequest(req); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	desc := pgtype.Text{}
	if req.Description != "" {
		desc = pgtype.Text{String: req.Description, Valid: true}
	}
	imageURL := pgtype.Text{}
	if req.ImageURL != "" {
		imageURL = pgtype.Text{String: req.ImageURL, Valid: true}
	}

	meal, err := h.store.UpdateMeal(r.Context(), database.UpdateMealParams{
		ID:          id,
		Name:        req.Name,
		Description: desc,
		PriceCents:  *req.PriceCents,
		Category:    req.Category,
		ImageURL:    imageURL,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "meal not found"})
			return
		}
		log.Printf("ERROR: update meal: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMealResponse(meal))
}

// Delete retires a meal from the menu by setting is_active=false. Past
// orders keep their meal name and price snapshots.
func (h *MealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid meal ID"})
		return
	}

	if _, err := h.store.SoftDeleteMeal(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "meal not found"})
			return
		}
		log.Printf("ERROR: delete meal: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
