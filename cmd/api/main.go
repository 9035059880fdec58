// Package main API.
//
// diploma-generator renders one PDF per name from a template carrying a
// placeholder and returns the documents as a zip archive.
//
//	Schemes: http
//	BasePath: /
//	Version: 1.0.0
//	Host: localhost:8080
//
//	Consumes:
//	- multipart/form-data
//
//	Produces:
//	- text/html
//	- application/json
//	- application/zip
//
// swagger:meta
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/niklasemond/diploma-generator-2/internal/config"
	"github.com/niklasemond/diploma-generator-2/internal/logging"
	"github.com/niklasemond/diploma-generator-2/internal/server"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
)

func gracefulShutdown(apiServer *http.Server, done chan bool, cleanupFunc func()) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logging.Info("shutting down gracefully, press Ctrl+C again to force")

	// In-flight batches get 5 seconds to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		logging.Error("server forced to shutdown", "error", err)
	}

	if cleanupFunc != nil {
		logging.Info("cleaning upload directory")
		cleanupFunc()
	}

	logging.Info("server exiting")

	done <- true
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Options{
		File:       cfg.Logger.File,
		Level:      cfg.Logger.Level,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
		Compress:   cfg.Logger.Compress,
	})

	// pdfcpu would otherwise write its config dir below the user's home.
	pdfapi.DisableConfigDir()

	cleanup := func() {
		if err := server.CleanUploads(cfg.Upload.Dir); err != nil {
			logging.Warn("cleanup failed", "dir", cfg.Upload.Dir, "error", err)
		}
	}
	cleanup()

	srv, err := server.NewServer(cfg)
	if err != nil {
		logging.Error("server setup failed", "error", err)
		os.Exit(1)
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go srv.SweepSessions(sweepCtx)

	done := make(chan bool, 1)
	go gracefulShutdown(srv.HTTP, done, cleanup)

	logging.Info("starting server", "addr", srv.HTTP.Addr, "upload_dir", cfg.Upload.Dir)
	err = srv.HTTP.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	<-done
	logging.Info("graceful shutdown complete")
}
