// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/fieldops/custody-server/pkg/api"
)

func (s *Server) setRoutes() *chi.Mux {

	// Set api controller dependencies
	a := api.NewAPICtrl(s.Config, s.Store)

	// Define the router
	r := chi.NewRouter()

	// Recovery middleware
	r.Use(middleware.Recoverer)

	// Heartbeat (excluded from logs)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("The Custody Server is running!"))
	})

	// Group for all other routes
	r.Group(func(r chi.Router) {
		// Logger middleware
		r.Use(middleware.Logger)

		r.NotFound(notFoundProblemDetail)

		// CORS Configuration
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:8090", "http://localhost:8091"}, // URLs of the mobile dev shell
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: true,
			MaxAge:           300, // Maximum value not ignored by any of major browsers
		}))

		// Field routes
		// Require an operator token
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.Config))
			r.Use(render.SetContentType(render.ContentTypeJSON))

			// Custody tracking
			r.Post("/scans", a.RecordScan) // POST /scans
			r.Route("/assets/{kind}", func(r chi.Router) {
				r.Get("/next-number", a.GetNextNumber) // GET /assets/sdcard/next-number
				r.Route("/{assetNumber}", func(r chi.Router) {
					r.Get("/", a.GetCurrentState)            // GET /assets/sdcard/1050
					r.Get("/suggestion", a.SuggestNextState) // GET /assets/sdcard/1050/suggestion
					r.Get("/history", a.GetAssetHistory)     // GET /assets/sdcard/1050/history
				})
			})

			// Work sessions
			r.Route("/sessions", func(r chi.Router) {
				r.With(paginate).Get("/", a.ListSessions) // GET /sessions{?upcoming,page,per_page}
				r.Post("/", a.CreateSession)

				r.Route("/{sessionID}", func(r chi.Router) {
					r.Get("/", a.GetSession)       // GET /sessions/123
					r.Put("/", a.UpdateSession)    // PUT /sessions/123
					r.Delete("/", a.DeleteSession) // DELETE /sessions/123
				})
			})

			// Edit locks
			r.Route("/locks/{containerID}", func(r chi.Router) {
				r.Get("/", a.ListLocks) // GET /locks/report-2025-08-30
				r.Route("/{entryID}", func(r chi.Router) {
					r.Get("/", a.CheckLock)      // GET /locks/report-2025-08-30/row-12
					r.Put("/", a.AcquireLock)    // PUT /locks/report-2025-08-30/row-12
					r.Delete("/", a.ReleaseLock) // DELETE /locks/report-2025-08-30/row-12
				})
			})

			// Analytics
			r.Route("/analytics", func(r chi.Router) {
				r.Get("/{kind}/distribution", a.GetStatusDistribution)
				r.Get("/{kind}/dwell", a.GetDwellTime)
				r.Get("/{kind}/activity", a.GetPhotographerActivity)
				r.Get("/lifecycle", a.GetLifecycleDuration)
				r.Get("/process-time", a.GetProcessTime)
				r.Get("/alerts/left-job", a.GetLeftJobAlerts)
			})

			// Live feeds
			r.Get("/ws/locks/{containerID}", a.WatchLocks)
			r.Get("/ws/alerts/left-job", a.WatchLeftJobAlerts)
		})

		// Private Routes
		// Require Authentication
		credentials := make(map[string]string)
		credentials[s.Config.Access.Username] = s.Config.Access.Password

		r.Group(func(r chi.Router) {
			r.Use(middleware.BasicAuth("restricted", credentials))
			r.Use(AuthMiddleware(s.Config))
			r.Use(render.SetContentType(render.ContentTypeJSON))

			// Record correction
			r.Delete("/events/{eventID}", a.CorrectEvent) // DELETE /events/123

			// Event log export, for the custodycheck tool
			r.Get("/export/{kind}", a.ExportEvents) // GET /export/sdcard

			// CSV activity report
			r.Get("/reports/events", a.ReportEvents) // GET /reports/events{?month,date}

			// Stale lock reaping
			r.Post("/locks/{containerID}/reap", a.ReapLocks) // POST /locks/report-2025-08-30/reap

			// Dashboard
			r.Get("/dashboard", a.GetDashboard) // GET /dashboard
		})
	})

	return r
}

// paginate middleware
func paginate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// default values
		page := 1
		perPage := 20

		// read query parameters
		q := r.URL.Query()
		if p := q.Get("page"); p != "" {
			if val, err := strconv.Atoi(p); err == nil && val > 0 {
				page = val
			}
		}
		if pp := q.Get("per_page"); pp != "" {
			if val, err := strconv.Atoi(pp); err == nil && val > 0 {
				perPage = val
			}
		}

		// add to context
		ctx := context.WithValue(r.Context(), api.PageKey, page)
		ctx = context.WithValue(ctx, api.PerPageKey, perPage)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// notFoundProblemDetail formats not found errors as problem details, for the sake of consistency.
func notFoundProblemDetail(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{"type": "about:blank", "title": "Endpoint not found."}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)

	json.NewEncoder(w).Encode(response)
}
