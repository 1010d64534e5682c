// SPDX-License-Identifier: AGPL-3.0-only
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluffyriot/skillboard/internal/api/handlers"
	"github.com/fluffyriot/skillboard/internal/backend"
	"github.com/fluffyriot/skillboard/internal/cli"
	"github.com/fluffyriot/skillboard/internal/config"
	"github.com/fluffyriot/skillboard/internal/logging"
	"github.com/fluffyriot/skillboard/internal/report"
	"github.com/fluffyriot/skillboard/internal/session"
	"github.com/fluffyriot/skillboard/internal/storage"
	"github.com/fluffyriot/skillboard/internal/web"
	"github.com/fluffyriot/skillboard/internal/worker"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "version") {
		fmt.Println(config.AppVersion)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.Init(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logging: %v", err)
	}

	client := backend.NewClient(cfg.BackendURL, cfg.FetchTimeout, logger)
	defer client.Close()

	renderer := report.NewRenderer(cfg.ReportName, cfg.Theme, report.NewAvatarLoader(client, logger), logger)

	if len(os.Args) > 1 && os.Args[1] == "export" {
		cli.HandleExport(client, renderer, os.Args[2:], cfg.ReportName, logger)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, client, renderer, logger); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.AppConfig, client *backend.Client, renderer *report.Renderer, logger *slog.Logger) error {
	store, err := session.NewStore(cfg.SessionSecret, cfg.SecureCookies())
	if err != nil {
		return err
	}

	tmpl, err := web.Templates()
	if err != nil {
		return err
	}

	snapshotter := report.NewSnapshotter(cfg.QuickExportEnabled, cfg.ChromePath, cfg.PublicURL, cfg.ReportName, logger)

	var archive handlers.Archiver
	if w := newArchiveWorker(ctx, cfg, logger); w != nil {
		w.Start(ctx)
		defer w.Stop()
		archive = w
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(tmpl)

	h := handlers.NewHandler(cfg, client, renderer, snapshotter, archive, logger)
	h.RegisterRoutes(r, store)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("Starting skillboard",
		"version", config.AppVersion,
		"addr", cfg.ListenAddr,
		"backend", cfg.BackendURL,
		"theme", cfg.Theme.Name,
		"quick_export", cfg.QuickExportEnabled,
		"archive", archive != nil,
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// newArchiveWorker returns nil when object storage is not configured or not
// reachable at startup; reports are then only downloaded.
func newArchiveWorker(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) *worker.Worker {
	if !cfg.S3.Enabled() {
		return nil
	}

	s3, err := storage.NewS3(cfg.S3)
	if err != nil {
		logger.Error("Report archive disabled", "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s3.EnsureBucket(ctx); err != nil {
		logger.Error("Report archive disabled", "bucket", cfg.S3.Bucket, "error", err)
		return nil
	}

	return worker.NewWorker(storage.NewArchive(s3), 0, logger)
}
