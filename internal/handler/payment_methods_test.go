package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/savora/api/internal/database"
	"github.com/savora/api/internal/enum"
	"github.com/savora/api/internal/handler"
	"github.com/savora/api/internal/rbac"
)

// --- Mock store ---

type mockPaymentMethodStore struct {
	methods map[uuid.UUID]database.PaymentMethod
}

func newMockPaymentMethodStore() *mockPaymentMethodStore {
	return &mockPaymentMethodStore{methods: make(map[uuid.UUID]database.PaymentMethod)}
}

func (m *mockPaymentMethodStore) addMethod(customerID uuid.UUID, label string, isDefault bool) uuid.UUID {
	id := uuid.New()
	m.methods[id] = database.PaymentMethod{
		ID:           id,
		CustomerID:   customerID,
		Kind:         enum.PaymentMethodCard,
		Label:        label,
		MaskedDetail: "•••• 4242",
		IsDefault:    isDefault,
		CreatedAt:    time.Now(),
	}
	return id
}

func (m *mockPaymentMethodStore) ListPaymentMethodsByCustomer(_ context.Context, customerID uuid.UUID) ([]database.PaymentMethod, error) {
	var result []database.PaymentMethod
	for _, pm := range m.methods {
		if pm.CustomerID == customerID {
			result = append(result, pm)
		}
	}
	return result, nil
}

func (m *mockPaymentMethodStore) CreatePaymentMethod(_ context.Context, arg database.CreatePaymentMethodParams) (database.PaymentMethod, error) {
	pm := database.PaymentMethod{
		ID:           uuid.New(),
		CustomerID:   arg.CustomerID,
		Kind:         arg.Kind,
		Label:        arg.Label,
		MaskedDetail: arg.MaskedDetail,
		IsDefault:    arg.IsDefault,
		CreatedAt:    time.Now(),
	}
	m.methods[pm.ID] = pm
	return pm, nil
}

func (m *mockPaymentMethodStore) ClearDefaultPaymentMethods(_ context.Context, customerID uuid.UUID) error {
	for id, pm := range m.methods {
		if pm.CustomerID == customerID && pm.IsDefault {
			pm.IsDefault = false
			m.methods[id] = pm
		}
	}
	return nil
}

func (m *mockPaymentMethodStore) DeletePaymentMethod(_ context.Context, arg database.DeletePaymentMethodParams) (uuid.UUID, error) {
	pm, ok := m.methods[arg.ID]
	if !ok || pm.CustomerID != arg.CustomerID {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(m.methods, arg.ID)
	return arg.ID, nil
}

// --- Helpers ---

func setupPaymentMethodRouter(store *mockPaymentMethodStore, identity *rbac.Identity) http.Handler {
	h := handler.NewPaymentMethodHandler(store)
	r := chi.NewRouter()
	r.Route("/me/payment-methods", h.RegisterRoutes)
	return withIdentity(r, identity)
}

func decodePaymentMethodResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

// --- Tests ---

func TestPaymentMethodCreate_Valid(t *testing.T) {
	store := newMockPaymentMethodStore()
	customerID := uuid.New()
	router := setupPaymentMethodRouter(store, customerIdentity(customerID))

	rr := doRequest(t, router, "POST", "/me/payment-methods", map[string]interface{}{
		"kind":          enum.PaymentMethodCard,
		"label":         "Personal Visa",
		"masked_detail": "•••• 4242",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodePaymentMethodResponse(t, rr)
	if resp["label"] != "Personal Visa" {
		t.Errorf("label: got %v, want Personal Visa", resp["label"])
	}
	if len(store.methods) != 1 {
		t.Fatalf("expected 1 stored method, got %d", len(store.methods))
	}
	for _, pm := range store.methods {
		if pm.CustomerID != customerID {
			t.Errorf("stored customer: got %s, want %s", pm.CustomerID, customerID)
		}
	}
}

func TestPaymentMethodCreate_RejectsFullCardNumber(t *testing.T) {
	router := setupPaymentMethodRouter(newMockPaymentMethodStore(), customerIdentity(uuid.New()))

	rr := doRequest(t, router, "POST", "/me/payment-methods", map[string]interface{}{
		"kind":          enum.PaymentMethodCard,
		"label":         "Personal Visa",
		"masked_detail": "4242424242424242",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
	resp := decodePaymentMethodResponse(t, rr)
	if resp["error"] != "masked_detail must not contain a full card number" {
		t.Errorf("error: got %v", resp["error"])
	}
}

func TestPaymentMethodCreate_InvalidKind(t *testing.T) {
	router := setupPaymentMethodRouter(newMockPaymentMethodStore(), customerIdentity(uuid.New()))

	rr := doRequest(t, router, "POST", "/me/payment-methods", map[string]interface{}{
		"kind":          "CASH",
		"label":         "Pocket",
		"masked_detail": "n/a",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestPaymentMethodCreate_BlankLabel(t *testing.T) {
	router := setupPaymentMethodRouter(newMockPaymentMethodStore(), customerIdentity(uuid.New()))

	rr := doRequest(t, router, "POST", "/me/payment-methods", map[string]interface{}{
		"kind":          enum.PaymentMethodWallet,
		"label":         "   ",
		"masked_detail": "wallet@savora.test",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestPaymentMethodCreate_DefaultClearsPrevious(t *testing.T) {
	store := newMockPaymentMethodStore()
	customerID := uuid.New()
	oldID := store.addMethod(customerID, "Old Card", true)
	router := setupPaymentMethodRouter(store, customerIdentity(customerID))

	rr := doRequest(t, router, "POST", "/me/payment-methods", map[string]interface{}{
		"kind":          enum.PaymentMethodCard,
		"label":         "New Card",
		"masked_detail": "•••• 1111",
		"is_default":    true,
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if store.methods[oldID].IsDefault {
		t.Error("expected previous default to be cleared")
	}
}

func TestPaymentMethodList_OnlyOwnMethods(t *testing.T) {
	store := newMockPaymentMethodStore()
	mine := uuid.New()
	store.addMethod(mine, "Mine", false)
	store.addMethod(uuid.New(), "Theirs", false)
	router := setupPaymentMethodRouter(store, customerIdentity(mine))

	rr := doRequest(t, router, "GET", "/me/payment-methods", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 method, got %d", len(resp))
	}
	if resp[0]["label"] != "Mine" {
		t.Errorf("label: got %v, want Mine", resp[0]["label"])
	}
}

func TestPaymentMethodDelete_OtherCustomersMethodIsNotFound(t *testing.T) {
	store := newMockPaymentMethodStore()
	theirs := store.addMethod(uuid.New(), "Theirs", false)
	router := setupPaymentMethodRouter(store, customerIdentity(uuid.New()))

	rr := doRequest(t, router, "DELETE", "/me/payment-methods/"+theirs.String(), nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if _, ok := store.methods[theirs]; !ok {
		t.Error("expected method to survive a foreign delete")
	}
}

func TestPaymentMethodDelete_Valid(t *testing.T) {
	store := newMockPaymentMethodStore()
	customerID := uuid.New()
	id := store.addMethod(customerID, "Mine", false)
	router := setupPaymentMethodRouter(store, customerIdentity(customerID))

	rr := doRequest(t, router, "DELETE", "/me/payment-methods/"+id.String(), nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}
	if _, ok := store.methods[id]; ok {
		t.Error("expected method to be deleted")
	}
}

func TestPaymentMethod_Unauthenticated(t *testing.T) {
	router := setupPaymentMethodRouter(newMockPaymentMethodStore(), nil)

	rr := doRequest(t, router, "GET", "/me/payment-methods", nil)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
