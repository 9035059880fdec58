// Package server provides the HTTP server setup for the diploma generator.
//
// NewServer creates and configures the HTTP server, the flash session
// manager, the PDF processor and the upload directory.
//
// Expected outputs:
// - Server listens on the configured port (default 8080)
// - Old flash sessions are swept periodically
//
// Usage:
//
//	cfg, _ := config.Load()
//	srv, _ := server.NewServer(cfg)
//	srv.HTTP.ListenAndServe()
//
// See internal/server/routes.go for route registration.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/niklasemond/diploma-generator-2/internal/batch"
	"github.com/niklasemond/diploma-generator-2/internal/config"
	"github.com/niklasemond/diploma-generator-2/internal/logging"
	"github.com/niklasemond/diploma-generator-2/internal/pdf"
	"github.com/niklasemond/diploma-generator-2/internal/session"
)

type Server struct {
	Config         config.Config
	SessionManager *session.SessionManager
	Processor      *batch.Processor
	HTTP           *http.Server
}

func NewServer(cfg config.Config) (*Server, error) {
	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	fonts := pdf.NewFontResolver(cfg.Render.FontDirs, cfg.Render.FallbackFont)
	logging.Info("font index ready", "fonts", fonts.Len(), "dirs", cfg.Render.FontDirs)

	srv := &Server{
		Config:         cfg,
		SessionManager: session.NewSessionManager(),
		Processor:      batch.NewProcessor(pdf.NewStamper(fonts, cfg.Render.Padding)),
	}
	srv.HTTP = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.RegisterRoutes(),
		IdleTimeout:  cfg.Server.IdleTimeout,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorLog:     logging.StdLogger(),
	}
	return srv, nil
}

// SweepSessions drops expired flash sessions every interval until ctx is done.
func (s *Server) SweepSessions(ctx context.Context) {
	ticker := time.NewTicker(s.Config.Session.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.SessionManager.Sweep(s.Config.Session.TTL); n > 0 {
				logging.Debug("swept flash sessions", "removed", n)
			}
		}
	}
}

// CleanUploads removes everything below dir, keeping dir itself.
func CleanUploads(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
