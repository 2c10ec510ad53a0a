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
	"github.com/savora/api/internal/handler"
)

// --- Mock store ---

type mockSaleEventStore struct {
	events map[uuid.UUID]database.SaleEvent
}

func newMockSaleEventStore() *mockSaleEventStore {
	return &mockSaleEventStore{events: make(map[uuid.UUID]database.SaleEvent)}
}

func (m *mockSaleEventStore) ListSaleEvents(_ context.Context) ([]database.SaleEvent, error) {
	var result []database.SaleEvent
	for _, e := range m.events {
		result = append(result, e)
	}
	return result, nil
}

func (m *mockSaleEventStore) CreateSaleEvent(_ context.Context, arg database.CreateSaleEventParams) (database.SaleEvent, error) {
	now := time.Now()
	e := database.SaleEvent{
		ID:         uuid.New(),
		Name:       arg.Name,
		PercentBps: arg.PercentBps,
		StartsAt:   arg.StartsAt.Time,
		EndsAt:     arg.EndsAt.Time,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.events[e.ID] = e
	return e, nil
}

func (m *mockSaleEventStore) UpdateSaleEvent(_ context.Context, arg database.UpdateSaleEventParams) (database.SaleEvent, error) {
	e, ok := m.events[arg.ID]
	if !ok || !e.IsActive {
		return database.SaleEvent{}, pgx.ErrNoRows
	}
	e.Name = arg.Name
	e.PercentBps = arg.PercentBps
	e.StartsAt = arg.StartsAt.Time
	e.EndsAt = arg.EndsAt.Time
	e.UpdatedAt = time.Now()
	m.events[e.ID] = e
	return e, nil
}

func (m *mockSaleEventStore) SoftDeleteSaleEvent(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	e, ok := m.events[id]
	if !ok || !e.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	e.IsActive = false
	m.events[id] = e
	return id, nil
}

// --- Helpers ---

func setupSaleEventRouter(store *mockSaleEventStore) *chi.Mux {
	h := handler.NewSaleEventHandler(store)
	r := chi.NewRouter()
	r.Route("/staff/sale-events", h.RegisterRoutes)
	return r
}

func decodeSaleEventResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

// --- Tests ---

func TestSaleEventCreate_Valid(t *testing.T) {
	store := newMockSaleEventStore()
	router := setupSaleEventRouter(store)
	start, end := promoWindow()

	rr := doRequest(t, router, "POST", "/staff/sale-events", map[string]interface{}{
		"name":        "Summer Sale",
		"percent_bps": 2500,
		"starts_at":   start,
		"ends_at":     end,
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeSaleEventResponse(t, rr)
	if resp["name"] != "Summer Sale" {
		t.Errorf("name: got %v, want Summer Sale", resp["name"])
	}
	if resp["percent_bps"] != float64(2500) {
		t.Errorf("percent_bps: got %v, want 2500", resp["percent_bps"])
	}
	if len(store.events) != 1 {
		t.Errorf("expected 1 stored event, got %d", len(store.events))
	}
}

func TestSaleEventCreate_MissingName(t *testing.T) {
	router := setupSaleEventRouter(newMockSaleEventStore())
	start, end := promoWindow()

	rr := doRequest(t, router, "POST", "/staff/sale-events", map[string]interface{}{
		"percent_bps": 2500,
		"starts_at":   start,
		"ends_at":     end,
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSaleEventCreate_PercentOutOfRange(t *testing.T) {
	router := setupSaleEventRouter(newMockSaleEventStore())
	start, end := promoWindow()

	for _, bps := range []int{0, -100, 10001} {
		rr := doRequest(t, router, "POST", "/staff/sale-events", map[string]interface{}{
			"name":        "Broken Sale",
			"percent_bps": bps,
			"starts_at":   start,
			"ends_at":     end,
		})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("percent_bps %d: got %d, want %d", bps, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestSaleEventCreate_InvertedWindow(t *testing.T) {
	router := setupSaleEventRouter(newMockSaleEventStore())
	start, end := promoWindow()

	rr := doRequest(t, router, "POST", "/staff/sale-events", map[string]interface{}{
		"name":        "Backwards Sale",
		"percent_bps": 1000,
		"starts_at":   end,
		"ends_at":     start,
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSaleEventUpdate_Valid(t *testing.T) {
	store := newMockSaleEventStore()
	now := time.Now()
	id := uuid.New()
	store.events[id] = database.SaleEvent{
		ID: id, Name: "Summer Sale", PercentBps: 1000,
		StartsAt: now, EndsAt: now.Add(time.Hour), IsActive: true,
	}
	router := setupSaleEventRouter(store)
	start, end := promoWindow()

	rr := doRequest(t, router, "PUT", "/staff/sale-events/"+id.String(), map[string]interface{}{
		"name":        "Extended Summer Sale",
		"percent_bps": 1500,
		"starts_at":   start,
		"ends_at":     end,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if store.events[id].PercentBps != 1500 {
		t.Errorf("stored percent_bps: got %d, want 1500", store.events[id].PercentBps)
	}
}

func TestSaleEventUpdate_NotFound(t *testing.T) {
	router := setupSaleEventRouter(newMockSaleEventStore())
	start, end := promoWindow()

	rr := doRequest(t, router, "PUT", "/staff/sale-events/"+uuid.New().String(), map[string]interface{}{
		"name":        "Ghost Sale",
		"percent_bps": 1000,
		"starts_at":   start,
		"ends_at":     end,
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestSaleEventDelete_Valid(t *testing.T) {
	store := newMockSaleEventStore()
	now := time.Now()
	id := uuid.New()
	store.events[id] = database.SaleEvent{
		ID: id, Name: "Summer Sale", PercentBps: 1000,
		StartsAt: now, EndsAt: now.Add(time.Hour), IsActive: true,
	}
	router := setupSaleEventRouter(store)

	rr := doRequest(t, router, "DELETE", "/staff/sale-events/"+id.String(), nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}
	if store.events[id].IsActive {
		t.Error("expected sale event to be deactivated")
	}
}

func TestSaleEventDelete_InvalidID(t *testing.T) {
	router := setupSaleEventRouter(newMockSaleEventStore())

	rr := doRequest(t, router, "DELETE", "/staff/sale-events/not-a-uuid", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
