package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savora/api/internal/database"
	"github.com/savora/api/internal/middleware"
)

// CustomerStore defines the database methods needed by customer
// handlers. Satisfied by *database.Queries; narrow interface for
// testability.
type CustomerStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (database.UserAccount, error)
	GetCustomerProfile(ctx context.Context, userID uuid.UUID) (database.CustomerProfile, error)
	UpdateCustomerProfile(ctx context.Context, arg database.UpdateCustomerProfileParams) (database.CustomerProfile, error)
	ListCustomers(ctx context.Context, arg database.ListCustomersParams) ([]database.ListCustomersRow, error)
}

// CustomerHandler handles the customer's own profile and the admin
// customer directory.
type CustomerHandler struct {
	store CustomerStore
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(store CustomerStore) *CustomerHandler {
	return &CustomerHandler{store: store}
}

// RegisterMeRoutes registers the authenticated customer's profile
// endpoints.
func (h *CustomerHandler) RegisterMeRoutes(r chi.Router) {
	r.Get("/", h.GetMe)
	r.Put("/", h.UpdateMe)
}

// RegisterAdminRoutes registers the customer directory. Expected to be
// mounted behind the admin role check.
func (h *CustomerHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// --- Request / Response types ---

type updateProfileRequest struct {
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type profileResponse struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Phone    *string   `json:"phone"`
	Address  *string   `json:"address"`
}

type customerListItem struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Phone    *string   `json:"phone"`
	IsActive bool      `json:"is_active"`
}

// --- Handlers ---

// GetMe returns the authenticated user's profile.
func (h *CustomerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	user, err := h.store.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "account not found"})
			return
		}
		log.Printf("ERROR: get user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := profileResponse{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
	}

	profile, err := h.store.GetCustomerProfile(r.Context(), identity.UserID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("ERROR: get customer profile: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if err == nil {
		if profile.Phone.Valid {
			resp.Phone = &profile.Phone.String
		}
		if profile.Address.Valid {
			resp.Address = &profile.Address.String
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateMe updates the authenticated customer's contact details.
func (h *CustomerHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	phone := pgtype.Text{}
	if req.Phone != "" {
		phone = pgtype.Text{String: req.Phone, Valid: true}
	}
	address := pgtype.Text{}
	if req.Address != "" {
		address = pgtype.Text{String: req.Address, Valid: true}
	}

	profile, err := h.store.UpdateCustomerProfile(r.Context(), database.UpdateCustomerProfileParams{
		UserID:  identity.UserID,
		Phone:   phone,
		Address: address,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
			return
		}
		log.Printf("ERROR: update customer profile: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	user, err := h.store.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		log.Printf("ERROR: get user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := profileResponse{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
	}
	if profile.Phone.Valid {
		resp.Phone = &profile.Phone.String
	}
	if profile.Address.Valid {
		resp.Address = &profile.Address.String
	}

	writeJSON(w, http.StatusOK, resp)
}

// List returns the customer directory, paginated.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 50)

	rows, err := h.store.ListCustomers(r.Context(), database.ListCustomersParams{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		log.Printf("ERROR: list customers: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]customerListItem, len(rows))
	for i, row := range rows {
		item := customerListItem{
			ID:       row.ID,
			Email:    row.Email,
			FullName: row.FullName,
			IsActive: row.IsActive,
		}
		if row.Phone.Valid {
			item.Phone = &row.Phone.String
		}
		resp[i] = item
	}

	writeJSON(w, http.StatusOK, resp)
}
