// Package www is the JSON API for the receiving station: login,
// scanning, waybill progress, back-order picklists, and the spreadsheet
// imports, served over chi.
package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/OhmBoyz/receiving-shipping-tracker/backorder"
	"github.com/OhmBoyz/receiving-shipping-tracker/config"
	"github.com/OhmBoyz/receiving-shipping-tracker/picklist"
	"github.com/OhmBoyz/receiving-shipping-tracker/receiving"
	"github.com/OhmBoyz/receiving-shipping-tracker/store"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db        *store.DB
	cfg       *config.Config
	sessions  *sessionStore
	processor *receiving.Processor
	boSvc     *backorder.Service
	picklists *picklist.Generator
}

// NewRouter wires the API around the shared store and services.
func NewRouter(db *store.DB, cfg *config.Config, processor *receiving.Processor) http.Handler {
	boSvc := backorder.NewService(db)
	h := &Handlers{
		db:        db,
		cfg:       cfg,
		sessions:  newSessionStore(cfg.Web.SessionSecret),
		processor: processor,
		boSvc:     boSvc,
		picklists: picklist.NewGenerator(boSvc),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Post("/api/login", h.apiLogin)
	r.Post("/api/logout", h.apiLogout)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.authMiddleware)

		r.Get("/me", h.apiMe)

		// Scanning
		r.Post("/sessions", h.apiStartSession)
		r.Post("/sessions/{sessionID}/finish", h.apiFinishSession)
		r.Post("/sessions/{sessionID}/scan", h.apiScan)

		// Waybills
		r.Get("/waybills", h.apiListWaybills)
		r.Get("/waybills/incomplete", h.apiIncompleteWaybills)
		r.Get("/waybills/dates", h.apiWaybillDates)
		r.Get("/waybills/progress", h.apiWaybillProgress)
		r.Get("/waybills/{waybill}/lines", h.apiWaybillLines)
		r.Post("/waybills/{waybill}/terminate", h.apiTerminateWaybill)

		// Back orders
		r.Get("/backorders/urgent", h.apiUrgentJobs)
		r.Get("/backorders/in-progress", h.apiInProgressJobs)
		r.Get("/backorders/{goNumber}/items", h.apiJobItems)
		r.Get("/backorders/{goNumber}/open", h.apiJobOpenLines)
		r.Get("/backorders/{goNumber}/status", h.apiJobStatus)
		r.Get("/backorders/{goNumber}/picklist", h.apiGeneratePicklist)
		r.Post("/backorders/fulfill", h.apiBatchFulfill)
		r.Post("/backorders/picking", h.apiMarkPicking)

		// Reporting
		r.Get("/summary", h.apiScanSummary)

		// Admin: imports and user management
		r.Group(func(r chi.Router) {
			r.Use(h.adminMiddleware)

			r.Post("/imports/waybill", h.apiImportWaybill)
			r.Post("/imports/backorders", h.apiImportBackOrders)
			r.Post("/imports/part-identifiers", h.apiImportPartIdentifiers)

			r.Get("/users", h.apiListUsers)
			r.Post("/users", h.apiCreateUser)
			r.Delete("/users/{userID}", h.apiDeleteUser)
			r.Post("/users/{userID}/password", h.apiSetPassword)
		})
	})

	return r
}

func (h *Handlers) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := h.sessions.currentUser(r); !ok {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handlers) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, role, ok := h.sessions.currentUser(r)
		if !ok || role != store.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
