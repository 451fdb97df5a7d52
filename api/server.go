/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/materials/*   Material and ledger management
  /api/production/*  Production runs
  /api/recipe/*      Bill of materials
  /api/reports/*     Reporting
  /api/analytics/*   Time-bucketed analytics
  /api/settings/*    Configuration
  /api/employees/*   Employee management
  /api/attendance/*  Attendance tracking
  /api/salaries      Monthly salaries
  /api/payroll/*     Payroll reports
  /api/admin/*       Ledger audit

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Material routes
		r.Route("/materials", func(r chi.Router) {
			r.Get("/", h.handleListMaterials)
			r.Post("/", h.handleCreateMaterial)
			r.Get("/low-stock", h.handleLowStock)
			r.Get("/{id}", h.handleGetMaterial)
			r.Post("/{id}/restock", h.handleRestock)
			r.Get("/{id}/ledger", h.handleMaterialLedger)
			r.Get("/{id}/stockout", h.handleStockoutForecast)
		})

		// Ledger routes
		r.Get("/ledger", h.handleRecentLedger)

		// Production routes
		r.Route("/production", func(r chi.Router) {
			r.Get("/", h.handleListProductions)
			r.Post("/", h.handleCreateProduction)
			r.Post("/check", h.handleCheckAvailability)
			r.Delete("/{id}", h.handleUndoProduction)
			r.Get("/{id}/cost", h.handleProductionCost)
		})

		// Recipe routes
		r.Route("/recipe", func(r chi.Router) {
			r.Get("/", h.handleListRecipe)
			r.Put("/", h.handleSetRecipeItem)
			r.Delete("/{id}", h.handleRemoveRecipeItem)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", h.handleProductionSummary)
			r.Get("/consumption/{id}", h.handleMaterialConsumption)
		})

		// Analytics routes
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/overview", h.handleAnalyticsOverview)
			r.Get("/{period}", h.handleAnalytics)
		})

		// Settings routes
		r.Route("/settings", func(r chi.Router) {
			r.Get("/selling-price", h.handleGetSellingPrice)
			r.Put("/selling-price", h.handleSetSellingPrice)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.handleListEmployees)
			r.Post("/", h.handleCreateEmployee)
			r.Get("/{id}", h.handleGetEmployee)
			r.Put("/{id}", h.handleUpdateEmployee)
			r.Delete("/{id}", h.handleDeleteEmployee)
		})

		// Attendance routes
		r.Route("/attendance", func(r chi.Router) {
			r.Post("/", h.handleRecordAttendance)
			r.Post("/bulk", h.handleBulkAttendance)
			r.Get("/report", h.handleAttendanceReport)
		})

		// Salary routes
		r.Route("/salaries", func(r chi.Router) {
			r.Get("/", h.handleListSalaries)
			r.Post("/", h.handleSaveSalary)
		})
		r.Get("/payroll/report", h.handlePayrollReport)

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Get("/verify-ledger", h.handleVerifyLedger)
		})
	})

	return r
}
