// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fluffyriot/skillboard/internal/config"
	"github.com/fluffyriot/skillboard/internal/dashboard"
	"github.com/fluffyriot/skillboard/internal/middleware"
	"github.com/fluffyriot/skillboard/internal/models"
	"github.com/fluffyriot/skillboard/internal/report"
	"github.com/fluffyriot/skillboard/internal/session"
	"github.com/gin-gonic/gin"
)

type Backend interface {
	dashboard.Fetcher
	Login(ctx context.Context, email, password string) (models.User, error)
	Ping(ctx context.Context) error
}

type Renderer interface {
	Render(ctx context.Context, in report.Input) (report.Document, error)
}

type Snapshotter interface {
	Enabled() bool
	Snapshot(ctx context.Context, cookie *http.Cookie, path string) (report.Document, error)
}

type Archiver interface {
	Submit(userID string, doc report.Document) bool
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	Config      *config.AppConfig
	Theme       config.Theme
	Backend     Backend
	Controller  *dashboard.Controller
	Renderer    Renderer
	Snapshotter Snapshotter
	Archive     Archiver
	Logger      *slog.Logger
}

func NewHandler(cfg *config.AppConfig, backend Backend, renderer Renderer, snap Snapshotter, archive Archiver, logger *slog.Logger) *Handler {
	return &Handler{
		Config:      cfg,
		Theme:       cfg.Theme,
		Backend:     backend,
		Controller:  dashboard.NewController(backend, logger),
		Renderer:    renderer,
		Snapshotter: snap,
		Archive:     archive,
		Logger:      logger.With("component", "handlers"),
	}
}

// CommonData adds the values every page template expects, including
// notices carried over from a redirect.
func (h *Handler) CommonData(c *gin.Context, data gin.H) gin.H {
	out := gin.H{
		"theme":       h.Theme,
		"title":       h.Theme.Title,
		"app_version": config.AppVersion,
		"notices":     session.Notices(c),
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}

func (h *Handler) GetAuthenticatedUser(c *gin.Context) (models.User, bool) {
	return middleware.Identity(c).User()
}

func (h *Handler) renderError(c *gin.Context, status int, msg string) {
	c.HTML(status, "error.html", h.CommonData(c, gin.H{
		"error": msg,
		"title": "Error",
	}))
}
