package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/savora/api/internal/config"
	"github.com/savora/api/internal/database"
	"github.com/savora/api/internal/handler"
	mw "github.com/savora/api/internal/middleware"
	"github.com/savora/api/internal/rbac"
	"github.com/savora/api/internal/service"
	"github.com/savora/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Public storefront routes come first, then the authenticated customer
// surface, then the capability-gated staff surface, then admin.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // storefront dev server
			"https://order.savora.example",
			"https://backoffice.savora.example",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Public storefront menu
	mealHandler := handler.NewMealHandler(queries)
	r.Route("/meals", mealHandler.RegisterPublicRoutes)

	// WebSocket staff order feed (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, cfg.TaxRateBps)
	orderHandler := handler.NewOrderHandler(orderService, queries)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Customer surface
		r.Route("/orders", orderHandler.RegisterCustomerRoutes)

		customerHandler := handler.NewCustomerHandler(queries)
		r.Route("/me", func(r chi.Router) {
			customerHandler.RegisterMeRoutes(r)

			paymentMethodHandler := handler.NewPaymentMethodHandler(queries)
			r.Route("/payment-methods", paymentMethodHandler.RegisterRoutes)
		})

		// Staff surface, one capability per route block
		r.Route("/staff", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireCapability(rbac.CapMealManagement))
				r.Route("/meals", mealHandler.RegisterStaffRoutes)
			})

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireCapability(rbac.CapStockControl))
				stockHandler := handler.NewStockHandler(queries)
				r.Route("/stock", stockHandler.RegisterRoutes)
			})

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireCapability(rbac.CapOrders))
				r.Route("/orders", orderHandler.RegisterStaffRoutes)
			})

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireCapability(rbac.CapPromoCodes))
				promotionHandler := handler.NewPromotionHandler(queries)
				r.Route("/promotions", promotionHandler.RegisterRoutes)
			})

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireCapability(rbac.CapSeasonalDiscounts))
				saleEventHandler := handler.NewSaleEventHandler(queries)
				r.Route("/sale-events", saleEventHandler.RegisterRoutes)
			})

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireCapability(rbac.CapReports))
				reportHandler := handler.NewReportHandler(queries)
				r.Route("/reports", reportHandler.RegisterRoutes)
			})
		})

		// Admin surface
		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireRole(rbac.RoleAdmin))

			staffHandler := handler.NewStaffHandler(queries)
			r.Route("/staff", staffHandler.RegisterRoutes)

			customerHandler := handler.NewCustomerHandler(queries)
			r.Route("/customers", customerHandler.RegisterAdminRoutes)
		})
	})

	return r
}
