// Package server provides the HTTP server setup for go-formfill.
//
// NewServer creates and configures the HTTP server, the template/schema/job
// stores, the renderer, and the bulk orchestrator.
//
// Expected outputs:
// - Server listens on the configured address (default 127.0.0.1:8080)
// - Finished jobs and their artifacts are cleaned up periodically
//
// Usage:
//
//	srv, err := server.NewServer(cfg)
//	srv.ListenAndServe()
//
// See internal/server/routes.go for route registration.
package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"go-formfill/internal/bulk"
	"go-formfill/internal/config"
	"go-formfill/internal/render"
	"go-formfill/internal/schema"
	"go-formfill/internal/templates"
)

type Server struct {
	Config       *config.Config
	Templates    *templates.Store
	Schemas      *schema.Store
	Jobs         bulk.Store
	Orchestrator *bulk.Orchestrator
	Renderer     *render.Renderer
}

func NewServer(cfg *config.Config) (*http.Server, error) {
	srv, err := Build(cfg)
	if err != nil {
		return nil, err
	}

	// Cleanup goroutine for expired jobs and their artifacts.
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			for _, job := range srv.Jobs.SweepOlder(cfg.JobTTL) {
				if job.OutputFile != "" {
					if err := os.Remove(job.OutputFile); err != nil && !os.IsNotExist(err) {
						log.Printf("sweep: cannot remove %s: %v", job.OutputFile, err)
					}
				}
			}
		}
	}()

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      srv.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}, nil
}

// Build wires the stores and services without starting anything; used by
// NewServer and by route tests.
func Build(cfg *config.Config) (*Server, error) {
	templateStore, err := templates.NewStore(cfg.TemplateDir)
	if err != nil {
		return nil, err
	}
	schemaStore, err := schema.NewStore(cfg.SchemaDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create output directory: %w", err)
	}

	jobs := bulk.NewMemoryStore()
	renderer := render.NewRenderer()
	return &Server{
		Config:       cfg,
		Templates:    templateStore,
		Schemas:      schemaStore,
		Jobs:         jobs,
		Orchestrator: bulk.NewOrchestrator(jobs, schemaStore, renderer, cfg.OutputDir),
		Renderer:     renderer,
	}, nil
}
