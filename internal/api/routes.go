package api

import (
	"fmt"
	"net/http"
	"time"

	"ms-attendance/internal/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes mounts every endpoint. Everything under /api requires a bearer token.
func (h *Handler) Routes(verifier auth.TokenVerifier) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(verifier, h.Logger))

		r.Post("/transactions", h.SubmitTransaction)
		r.Get("/activity", h.StreamAllActivity)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Post("/", h.InitializeEvent)

			r.Route("/{address}", func(r chi.Router) {
				r.Get("/", h.GetEvent)
				r.Put("/", h.EditEvent)
				r.Delete("/", h.CloseEvent)
				r.Get("/registrations", h.ListRegistrations)
				r.Post("/registration", h.RegisterEvent)
				r.Delete("/registration", h.CancelRegistration)
				r.Post("/attendance", h.MintCredential)
				r.Get("/attendance-qr", h.AttendanceQR)
				r.Get("/activity", h.StreamActivity)
				r.Get("/stats", h.EventStats)
			})
		})

		r.Get("/registrations", h.ListMyRegistrations)
		r.Get("/registrations/{address}", h.GetRegistration)
		r.Get("/errors", h.ErrorCatalog)
		r.Get("/analytics/me", h.OrganizerSummary)
	})

	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.Logger.LogAPI(r.Method, r.URL.Path, fmt.Sprintf("%d", ww.Status()), time.Since(start).String())
	})
}
