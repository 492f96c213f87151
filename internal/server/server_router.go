package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func buildRouter(s *radiatorServer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Health/info
	r.Get("/healthz", healthzHandler)
	r.Get("/api/v1/server-info", serverInfoHandler)

	// Radiator
	r.Get("/api/v1/radiator", s.radiatorHandler)
	r.Get("/api/v1/radiator/stream", s.radiatorStreamHandler)
	r.Post("/api/v1/claims", s.claimHandler)

	return r
}
