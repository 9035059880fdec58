// Package server sets up the HTTP server and registers the routes of the
// diploma generator.
//
// RegisterRoutes returns an http.Handler with the upload form, the batch API
// and the health probe.
//
// Expected outputs:
// - The form is served at / and submitted back to /
// - The API endpoint is available under /api/batches
// - CORS and logging middleware are enabled
package server

import (
	"net"
	"net/http"

	_ "github.com/niklasemond/diploma-generator-2/docs"
	"github.com/niklasemond/diploma-generator-2/internal/handlers"
	"github.com/niklasemond/diploma-generator-2/internal/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
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
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  logging.StdLogger(),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.With(localhostOnly).Get("/swagger/*", httpSwagger.WrapHandler)

	h := handlers.NewAPIHandler(s.SessionManager, s.Processor, handlers.Options{
		UploadDir:      s.Config.Upload.Dir,
		MaxUploadBytes: s.Config.Upload.MaxBytes,
		ArchiveName:    s.Config.Render.ArchiveName,
	})
	r.Get("/", h.Index)
	r.Post("/", h.Generate)
	r.Get("/healthz", h.Health)
	r.Route("/api/batches", func(api chi.Router) {
		api.Post("/", h.CreateBatch)
	})

	return r
}
