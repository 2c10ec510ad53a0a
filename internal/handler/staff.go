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
	"github.com/savora/api/internal/database"
	"github.com/savora/api/internal/rbac"
	"golang.org/x/crypto/bcrypt"
)

// StaffStore defines the database methods needed by staff admin
// handlers. Satisfied by *database.Queries; narrow interface for
// testability.
type StaffStore interface {
	ListStaff(ctx context.Context) ([]database.ListStaffRow, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (database.UserAccount, error)
	CreateUserAccount(ctx context.Context, arg database.CreateUserAccountParams) (database.UserAccount, error)
	UpdateUserAccount(ctx context.Context, arg database.UpdateUserAccountParams) (database.UserAccount, error)
	SoftDeleteUserAccount(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	CreateStaffProfile(ctx context.Context, arg database.CreateStaffProfileParams) (database.StaffProfile, error)
	UpdateStaffPermissions(ctx context.Context, arg database.UpdateStaffPermissionsParams) (database.StaffProfile, error)
}

// StaffHandler handles admin-only staff account management.
type StaffHandler struct {
	store StaffStore
}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler(store StaffStore) *StaffHandler {
	return &StaffHandler{store: store}
}

// RegisterRoutes registers staff management endpoints. Expected to be
// mounted behind the admin role check.
func (h *StaffHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Put("/{id}/permissions", h.SetPermissions)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createStaffRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	Permissions int32  `json:"permissions"`
}

type updateStaffRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type setPermissionsRequest struct {
	Permissions *int32 `json:"permissions"`
}

type staffResponse struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	Permissions  int32     `json:"permissions"`
	Capabilities rbac.Set  `json:"capabilities"`
	IsActive     bool      `json:"is_active"`
}

// --- Handlers ---

// List returns all staff and admin accounts with their permission masks.
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListStaff(r.Context())
	if err != nil {
		log.Printf("ERROR: list staff: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]staffResponse, len(rows))
	for i, row := range rows {
		role, err := rbac.RoleFromCode(row.RoleCode)
		if err != nil {
			log.Printf("ERROR: staff %s has unknown role code %d", row.ID, row.RoleCode)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp[i] = staffResponse{
			ID:           row.ID,
			Email:        row.Email,
			FullName:     row.FullName,
			Role:         role.Name(),
			Permissions:  row.Permissions,
			Capabilities: rbac.Decode(row.Permissions),
			IsActive:     row.IsActive,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create provisions a staff account with an initial permission mask.
// Unknown bits in the mask are dropped before storage.
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Email == "" || req.Password == "" || req.FullName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email, password and full_name are required"})
		return
	}

	if len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: hash password: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	user, err := h.store.CreateUserAccount(r.Context(), database.CreateUserAccountParams{
		Email:          req.Email,
		HashedPassword: string(hashed),
		FullName:       req.FullName,
		RoleCode:       int16(rbac.RoleStaff),
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
			return
		}
		log.Printf("ERROR: create staff account: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	mask := rbac.Decode(req.Permissions).Mask()
	profile, err := h.store.CreateStaffProfile(r.Context(), database.CreateStaffProfileParams{
		UserID:      user.ID,
		Permissions: mask,
	})
	if err != nil {
		log.Printf("ERROR: create staff profile: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, staffResponse{
		ID:           user.ID,
		Email:        user.Email,
		FullName:     user.FullName,
		Role:         rbac.RoleStaff.Name(),
		Permissions:  profile.Permissions,
		Capabilities: rbac.Decode(profile.Permissions),
		IsActive:     user.IsActive,
	})
}

// Update modifies a staff account's email and name.
func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid staff ID"})
		return
	}

	var req updateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Email == "" || req.FullName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and full_name are required"})
		return
	}

	if !h.requireStaffAccount(w, r, id) {
		return
	}

	user, err := h.store.UpdateUserAccount(r.Context(), database.UpdateUserAccountParams{
		ID:       id,
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "staff member not found"})
			return
		}
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
			return
		}
		log.Printf("ERROR: update staff account: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	role, err := rbac.RoleFromCode(user.RoleCode)
	if err != nil {
		log.Printf("ERROR: staff %s has unknown role code %d", user.ID, user.RoleCode)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, staffResponse{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     role.Name(),
		IsActive: user.IsActive,
	})
}

// SetPermissions replaces a staff member's permission mask. The change
// takes effect on the target's next token refresh.
func (h *StaffHandler) SetPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid staff ID"})
		return
	}

	var req setPermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Permissions == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "permissions is required"})
		return
	}

	if !h.requireStaffAccount(w, r, id) {
		return
	}

	mask := rbac.Decode(*req.Permissions).Mask()
	profile, err := h.store.UpdateStaffPermissions(r.Context(), database.UpdateStaffPermissionsParams{
		UserID:      id,
		Permissions: mask,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "staff member not found"})
			return
		}
		log.Printf("ERROR: update staff permissions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":      profile.UserID,
		"permissions":  profile.Permissions,
		"capabilities": rbac.Decode(profile.Permissions),
	})
}

// Delete deactivates a staff account.
func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid staff ID"})
		return
	}

	if !h.requireStaffAccount(w, r, id) {
		return
	}

	if _, err := h.store.SoftDeleteUserAccount(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "staff member not found"})
			return
		}
		log.Printf("ERROR: delete staff account: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// requireStaffAccount verifies the target user exists and is staff or
// admin. Customer accounts are invisible to this handler, so targeting
// one reads as not found. Returns false after writing an error response.
func (h *StaffHandler) requireStaffAccount(w http.ResponseWriter, r *http.Request, id uuid.UUID) bool {
	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "staff member not found"})
			return false
		}
		log.Printf("ERROR: get staff account: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return false
	}

	role, err := rbac.RoleFromCode(user.RoleCode)
	if err != nil || role == rbac.RoleCustomer {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "staff member not found"})
		return false
	}
	return true
}
