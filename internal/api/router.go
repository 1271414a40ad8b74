package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/enodebd/internal/auth"
)

// healthTimeout bounds the backend checks of the health endpoint.
const healthTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)
		r.Post("/auth/logout", s.handleLogout)

		// Authenticated by ticket inside the handler.
		r.Get(s.wsPath(), s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/me", s.handleMe)
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			r.Route("/enodebs", func(r chi.Router) {
				r.With(s.require(auth.PermEnodebRead)).Get("/", s.handleListEnodebs)

				r.Route("/{serial}", func(r chi.Router) {
					r.With(s.require(auth.PermEnodebRead)).Get("/", s.handleGetEnodeb)
					r.With(s.require(auth.PermEnodebRead)).Get("/transitions", s.handleListTransitions)
					r.With(s.require(auth.PermEnodebReboot)).Post("/reboot", s.handleReboot)
					r.With(s.require(auth.PermEnodebReboot)).Post("/reset", s.handleReset)
					r.With(s.require(auth.PermEnodebExchange)).Post("/exchange", s.handleExchange)
				})
			})

			r.With(s.require(auth.PermAuditRead)).Get("/audit", s.handleListAuditLogs)

			r.Route("/operators", func(r chi.Router) {
				r.Use(s.require(auth.PermOperatorManage))
				r.Get("/", s.handleListOperators)
				r.Post("/", s.handleCreateOperator)
				r.Patch("/{id}", s.handleUpdateOperator)
			})
		})
	})

	return r
}

// wsPath is the WebSocket route below /api/v1.
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}

// handleHealth reports the server and backend status. The response is
// 503 when the database is unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	components := map[string]string{}
	if s.db != nil {
		components["database"] = "ok"
		if err := s.db.HealthCheck(ctx); err != nil {
			components["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	if s.mqtt != nil {
		components["mqtt"] = "ok"
		if err := s.mqtt.HealthCheck(ctx); err != nil {
			components["mqtt"] = err.Error()
		}
	}
	if s.influx != nil {
		components["influxdb"] = "ok"
		if err := s.influx.HealthCheck(ctx); err != nil {
			components["influxdb"] = err.Error()
		}
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status":     state,
		"version":    s.version,
		"components": components,
	})
}
