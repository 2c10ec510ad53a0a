package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/savora/api/internal/database"
	"github.com/savora/api/internal/enum"
	"github.com/savora/api/internal/middleware"
)

// PaymentMethodStore defines the database methods needed by payment
// method handlers. Satisfied by *database.Queries; narrow interface for
// testability.
type PaymentMethodStore interface {
	ListPaymentMethodsByCustomer(ctx context.Context, customerID uuid.UUID) ([]database.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, arg database.CreatePaymentMethodParams) (database.PaymentMethod, error)
	ClearDefaultPaymentMethods(ctx context.Context, customerID uuid.UUID) error
	DeletePaymentMethod(ctx context.Context, arg database.DeletePaymentMethodParams) (uuid.UUID, error)
}

// PaymentMethodHandler handles the customer's saved tenders.
type PaymentMethodHandler struct {
	store PaymentMethodStore
}

// NewPaymentMethodHandler creates a new PaymentMethodHandler.
func NewPaymentMethodHandler(store PaymentMethodStore) *PaymentMethodHandler {
	return &PaymentMethodHandler{store: store}
}

// RegisterRoutes registers payment method endpoints. Expected to be
// mounted behind authentication under the customer's own scope.
func (h *PaymentMethodHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createPaymentMethodRequest struct {
	Kind         string `json:"kind"`
	Label        string `json:"label"`
	MaskedDetail string `json:"masked_detail"`
	IsDefault    bool   `json:"is_default"`
}

type paymentMethodResponse struct {
	ID           uuid.UUID `json:"id"`
	Kind         string    `json:"kind"`
	Label        string    `json:"label"`
	MaskedDetail string    `json:"masked_detail"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
}

func toPaymentMethodResponse(pm database.PaymentMethod) paymentMethodResponse {
	return paymentMethodResponse{
		ID:           pm.ID,
		Kind:         pm.Kind,
		Label:        pm.Label,
		MaskedDetail: pm.MaskedDetail,
		IsDefault:    pm.IsDefault,
		CreatedAt:    pm.CreatedAt,
	}
}

// looksLikePAN is a coarse guard against a full card number arriving in
// masked_detail. Anything with 13+ consecutive digits is refused.
func looksLikePAN(s string) bool {
	run := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			run++
			if run >= 13 {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

// --- Handlers ---

// List returns the authenticated customer's saved payment methods.
func (h *PaymentMethodHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	methods, err := h.store.ListPaymentMethodsByCustomer(r.Context(), identity.UserID)
	if err != nil {
		log.Printf("ERROR: list payment methods: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]paymentMethodResponse, len(methods))
	for i, pm := range methods {
		resp[i] = toPaymentMethodResponse(pm)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create saves a new payment method. Marking it default clears the flag
// on the customer's other methods first.
func (h *PaymentMethodHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createPaymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Kind != enum.PaymentMethodCard && req.Kind != enum.PaymentMethodWallet {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid kind"})
		return
	}
	if strings.TrimSpace(req.Label) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "label is required"})
		return
	}
	if req.MaskedDetail == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "masked_detail is required"})
		return
	}
	if looksLikePAN(req.MaskedDetail) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "masked_detail must not contain a full card number"})
		return
	}

	if req.IsDefault {
		if err := h.store.ClearDefaultPaymentMethods(r.Context(), identity.UserID); err != nil {
			log.Printf("ERROR: clear default payment methods: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	pm, err := h.store.CreatePaymentMethod(r.Context(), database.CreatePaymentMethodParams{
		CustomerID:   identity.UserID,
		Kind:         req.Kind,
		Label:        req.Label,
		MaskedDetail: req.MaskedDetail,
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		log.Printf("ERROR: create payment method: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentMethodResponse(pm))
}

// Delete removes a payment method. The delete is scoped to the
// authenticated customer, so another customer's method reads as not
// found.
func (h *PaymentMethodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment method ID"})
		return
	}

	if _, err := h.store.DeletePaymentMethod(r.Context(), database.DeletePaymentMethodParams{
		ID:         id,
		CustomerID: identity.UserID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "payment method not found"})
			return
		}
		log.Printf("ERROR: delete payment method: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
