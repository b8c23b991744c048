/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

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
  /api/employees/*      Employee management
  /api/payroll/*        Preview and run calculations
  /api/policies/*       Policy document management
  /api/gosi/*           Statutory contribution configuration
  /api/settings/*       Company calculation settings
  /api/loans            Loan registration
  /api/adjustments/*    Disciplinary, retro and manual adjustments
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

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

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/payslips", h.ListEmployeePayslips)
			r.Get("/{id}/loans", h.ListEmployeeLoans)
		})

		// Calculation routes
		r.Route("/payroll", func(r chi.Router) {
			r.Post("/preview", h.PreviewPayroll)
			r.Post("/run", h.RunPayroll)
		})

		// Policy routes
		r.Route("/policies", func(r chi.Router) {
			r.Get("/", h.ListPolicies)
			r.Post("/", h.CreatePolicy)
			r.Get("/{id}", h.GetPolicy)
			r.Delete("/{id}", h.DeletePolicy)
		})

		// Statutory contribution configuration
		r.Route("/gosi", func(r chi.Router) {
			r.Post("/", h.SaveGosiConfig)
			r.Get("/{companyID}", h.GetGosiConfig)
		})

		// Company settings
		r.Route("/settings", func(r chi.Router) {
			r.Post("/", h.SaveSettings)
			r.Get("/{companyID}", h.GetSettings)
		})

		// Loans and adjustments
		r.Post("/loans", h.CreateLoan)
		r.Route("/adjustments", func(r chi.Router) {
			r.Post("/disciplinary", h.CreateDisciplinary)
			r.Post("/retro", h.CreateRetro)
			r.Post("/manual", h.CreateManualAdjustment)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	// Landing page listing the API surface.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Payroll Calculation Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Payroll Calculation Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/employees?company_id=co-1">/api/employees</a> - List employees</li>
<li><a href="/api/policies?company_id=co-1">/api/policies</a> - List policies</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List demo scenarios</li>
<li>POST /api/payroll/preview - Compute a payslip without persisting</li>
<li>POST /api/payroll/run - Compute and persist a payslip</li>
</ul>
</body>
</html>`))
	})

	return r
}
