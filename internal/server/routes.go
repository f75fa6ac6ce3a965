// Package server sets up the HTTP server and registers API routes for go-formfill.
//
// RegisterRoutes returns an http.Handler with all API endpoints for
// template, schema, and bulk job management.
//
// Expected outputs:
// - Template and field endpoints under /api/templates
// - Bulk pipeline endpoints under /api/bulk
// - CORS and logging middleware are enabled
package server

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-formfill/docs"
	"go-formfill/internal/handlers"
)

// Only allow requests from localhost to /swagger/*
func localhostOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, _ := net.SplitHostPort(r.RemoteAddr)
		if host != "127.0.0.1" && host != "::1" && host != "localhost" {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.With(localhostOnly).Get("/swagger/*", httpSwagger.WrapHandler)

	h := handlers.NewAPIHandler(s.Config, s.Templates, s.Schemas, s.Jobs, s.Orchestrator, s.Renderer)
	r.Route("/api/templates", func(api chi.Router) {
		api.Post("/", h.UploadTemplate)
		api.Get("/", h.ListTemplates)
		api.Get("/{templateID}/file", h.TemplateFile)
		api.Post("/{templateID}/fields", h.SaveFields)
		api.Get("/{templateID}/fields", h.GetFields)
		api.Post("/{templateID}/detect", h.DetectFields)
		api.Post("/{templateID}/fill", h.FillSingle)
	})
	r.Route("/api/bulk", func(api chi.Router) {
		api.Post("/{templateID}/parse", h.BulkParse)
		api.Post("/{templateID}/generate", h.BulkGenerate)
		api.Get("/jobs/{jobID}", h.JobStatus)
		api.Get("/jobs/{jobID}/download", h.JobDownload)
	})

	return r
}
