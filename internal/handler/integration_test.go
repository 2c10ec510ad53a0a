//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/savora/api/internal/config"
	"github.com/savora/api/internal/database"
	"github.com/savora/api/internal/rbac"
	"github.com/savora/api/internal/router"
	"github.com/savora/api/internal/ws"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// TestIntegrationFlow exercises the full API lifecycle against a real
// PostgreSQL database: admin bootstrap, staff provisioning with a
// capability mask, menu and stock setup, customer checkout with a promo
// code, and the order status lifecycle.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	pgContainer, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		Port:        "8081",
		DatabaseURL: connStr,
		JWTSecret:   "integration-test-secret",
		TaxRateBps:  1000, // 10% keeps the expected figures easy to follow
	}
	queries := database.New(pool)
	hub := ws.NewHub()
	// NOTE: hub.Run() goroutine leaks on test exit — Hub has no shutdown mechanism.
	// Acceptable for tests; production should add context-based shutdown.
	go hub.Run()

	r := router.New(cfg, queries, pool, hub)

	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Create admin user (manual DB insert to bootstrap) ---
	adminID := createAdminUser(t, ctx, pool)

	// --- 2. Login as admin ---
	adminToken := integrationLogin(t, server, "admin@integration.test", "password123")

	// --- 3. Provision a staff member with the orders capability ---
	staffMask := int32(rbac.CapOrders | rbac.CapStockControl)
	staffResp := httpPostJSON(t, server, "/admin/staff", map[string]interface{}{
		"email":       "staff@integration.test",
		"password":    "password123",
		"full_name":   "Integration Staff",
		"permissions": staffMask,
	}, adminToken)
	if int32(staffResp["permissions"].(float64)) != staffMask {
		t.Fatalf("staff permissions: got %v, want %d", staffResp["permissions"], staffMask)
	}

	// --- 4. Create a meal (admin bypasses the capability gate) ---
	mealResp := httpPostJSON(t, server, "/staff/meals", map[string]interface{}{
		"name":        "Lamb Tagine",
		"description": "Slow-cooked with apricots",
		"price_cents": 1850,
		"category":    "MAIN",
	}, adminToken)
	mealID := uuid.MustParse(mealResp["id"].(string))

	// --- 5. Stock the meal ---
	httpPutJSON(t, server, fmt.Sprintf("/staff/stock/%s", mealID), map[string]interface{}{
		"quantity":            20,
		"low_stock_threshold": 5,
	}, adminToken)

	// --- 6. Create a 10% promo code ---
	httpPostJSON(t, server, "/staff/promotions", map[string]interface{}{
		"code":           "WELCOME10",
		"discount_type":  "PERCENTAGE",
		"discount_value": 1000,
		"starts_at":      time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
		"ends_at":        time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
	}, adminToken)

	// --- 7. Register a customer through the API ---
	registerResp := httpPostJSON(t, server, "/auth/register", map[string]interface{}{
		"email":     "customer@integration.test",
		"password":  "password123",
		"full_name": "Integration Customer",
	}, "")
	customerToken, ok := registerResp["access_token"].(string)
	if !ok || customerToken == "" {
		t.Fatalf("register: no access_token in response: %+v", registerResp)
	}

	// --- 8. Checkout with the promo code ---
	orderResp := httpPostJSON(t, server, "/orders", map[string]interface{}{
		"items": []map[string]interface{}{
			{"meal_id": mealID.String(), "quantity": 2},
		},
		"promo_code": "WELCOME10",
	}, customerToken)
	orderID := uuid.MustParse(orderResp["id"].(string))

	// Subtotal 2 × 1850 = 3700, promo 10% = 370 off,
	// tax 10% of 3330 = 333, total 3663.
	assertCents(t, orderResp, "subtotal_cents", 3700)
	assertCents(t, orderResp, "discount_cents", 370)
	assertCents(t, orderResp, "tax_cents", 333)
	assertCents(t, orderResp, "total_cents", 3663)
	if orderResp["status"].(string) != "processing" {
		t.Fatalf("order status: got %v, want processing", orderResp["status"])
	}

	// --- 9. Stock was decremented ---
	stockResp := httpGetJSON(t, server, fmt.Sprintf("/staff/stock/%s", mealID), adminToken)
	if stockResp["quantity"].(float64) != 18 {
		t.Fatalf("stock after checkout: got %v, want 18", stockResp["quantity"])
	}

	// --- 10. Staff member moves the order through its lifecycle ---
	staffToken := integrationLogin(t, server, "staff@integration.test", "password123")

	shipped := httpPatchJSON(t, server, fmt.Sprintf("/staff/orders/%s/status", orderID), map[string]interface{}{
		"status": "shipped",
	}, staffToken)
	if shipped["status"].(string) != "shipped" {
		t.Fatalf("status after ship: got %v, want shipped", shipped["status"])
	}

	// Skipping a step backwards is refused
	code, _ := httpPatchJSONStatus(t, server, fmt.Sprintf("/staff/orders/%s/status", orderID), map[string]interface{}{
		"status": "processing",
	}, staffToken)
	if code != http.StatusConflict {
		t.Fatalf("illegal transition: got status %d, want %d", code, http.StatusConflict)
	}

	delivered := httpPatchJSON(t, server, fmt.Sprintf("/staff/orders/%s/status", orderID), map[string]interface{}{
		"status": "delivered",
	}, staffToken)
	if delivered["status"].(string) != "delivered" {
		t.Fatalf("status after delivery: got %v, want delivered", delivered["status"])
	}

	// --- 11. Customer sees the finished order in their history ---
	history := httpGetJSONList(t, server, "/orders", customerToken)
	if len(history) != 1 {
		t.Fatalf("order history: got %d orders, want 1", len(history))
	}
	if history[0]["status"].(string) != "delivered" {
		t.Fatalf("history status: got %v, want delivered", history[0]["status"])
	}

	// --- 12. Staff member without the reports capability is refused ---
	code, _ = httpGetJSONStatus(t, server, "/staff/reports/daily-sales", staffToken)
	if code != http.StatusForbidden {
		t.Fatalf("reports without capability: got status %d, want %d", code, http.StatusForbidden)
	}

	// --- 13. Admin reads the daily sales report ---
	report := httpGetJSONList(t, server, "/staff/reports/daily-sales", adminToken)
	if len(report) != 1 {
		t.Fatalf("daily sales: got %d rows, want 1", len(report))
	}
	assertCents(t, report[0], "net_cents", 3663)

	t.Logf("Integration test passed: container=%s, admin=%s, meal=%s, order=%s",
		pgContainer.GetContainerID(), adminID, mealID, orderID)
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("savora_test"),
		tcpostgres.WithUsername("savora"),
		tcpostgres.WithPassword("savora"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Path relative to this test file's package directory (internal/handler/).
	// Go test sets cwd to the package directory.
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func createAdminUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var id uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO user_accounts (email, hashed_password, full_name, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		"admin@integration.test", string(hashedPassword), "Integration Admin", int16(rbac.RoleAdmin),
	).Scan(&id)
	if err != nil {
		t.Fatalf("create admin user: %v", err)
	}
	return id
}

func integrationLogin(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	resp := httpPostJSON(t, server, "/auth/login", map[string]interface{}{
		"email":    email,
		"password": password,
	}, "")
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatalf("login failed: no access_token in response: %+v", resp)
	}
	return token
}

func assertCents(t *testing.T, resp map[string]interface{}, field string, want int64) {
	t.Helper()
	got, ok := resp[field].(float64)
	if !ok {
		t.Fatalf("%s missing from response: %+v", field, resp)
	}
	if int64(got) != want {
		t.Fatalf("%s: got %d, want %d", field, int64(got), want)
	}
}

// --- HTTP helpers ---

func httpDoJSON(t *testing.T, server *httptest.Server, method, path string, body map[string]interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func httpPostJSON(t *testing.T, server *httptest.Server, path string, body map[string]interface{}, token string) map[string]interface{} {
	t.Helper()
	code, result := httpDoJSON(t, server, "POST", path, body, token)
	if code < 200 || code >= 300 {
		t.Fatalf("POST %s: status %d, body: %v", path, code, result)
	}
	return result
}

func httpPutJSON(t *testing.T, server *httptest.Server, path string, body map[string]interface{}, token string) map[string]interface{} {
	t.Helper()
	code, result := httpDoJSON(t, server, "PUT", path, body, token)
	if code < 200 || code >= 300 {
		t.Fatalf("PUT %s: status %d, body: %v", path, code, result)
	}
	return result
}

func httpPatchJSON(t *testing.T, server *httptest.Server, path string, body map[string]interface{}, token string) map[string]interface{} {
	t.Helper()
	code, result := httpDoJSON(t, server, "PATCH", path, body, token)
	if code < 200 || code >= 300 {
		t.Fatalf("PATCH %s: status %d, body: %v", path, code, result)
	}
	return result
}

func httpPatchJSONStatus(t *testing.T, server *httptest.Server, path string, body map[string]interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	return httpDoJSON(t, server, "PATCH", path, body, token)
}

func httpGetJSON(t *testing.T, server *httptest.Server, path string, token string) map[string]interface{} {
	t.Helper()
	code, result := httpDoJSON(t, server, "GET", path, nil, token)
	if code < 200 || code >= 300 {
		t.Fatalf("GET %s: status %d, body: %v", path, code, result)
	}
	return result
}

func httpGetJSONStatus(t *testing.T, server *httptest.Server, path string, token string) (int, map[string]interface{}) {
	t.Helper()
	return httpDoJSON(t, server, "GET", path, nil, token)
}

func httpGetJSONList(t *testing.T, server *httptest.Server, path string, token string) []map[string]interface{} {
	t.Helper()
	req, err := http.NewRequest("GET", server.URL+path, nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("GET %s: status %d, body: %v", path, resp.StatusCode, errResp)
	}

	var result []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}
