// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"github.com/fluffyriot/skillboard/internal/middleware"
	"github.com/fluffyriot/skillboard/internal/session"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts every page, API and export route on r. Templates
// must already be loaded.
func (h *Handler) RegisterRoutes(r *gin.Engine, store sessions.Store) {
	r.Use(
		middleware.RequestLogger(h.Logger),
		middleware.SecurityHeadersMiddleware(h.Config.SecureCookies()),
		session.Middleware(store),
		middleware.AuthMiddleware(),
	)

	r.GET("/health", h.HealthCheckHandler)
	r.GET("/metrics", middleware.MetricsGuard(h.Config.MetricsToken), gin.WrapH(promhttp.Handler()))

	r.GET("/login", h.LoginViewHandler)
	r.POST("/login", h.LoginSubmitHandler)
	r.POST("/logout", h.LogoutHandler)

	r.GET("/", h.RootHandler)
	r.GET("/analytics", h.DashboardHandler)
	r.GET("/api/analytics", h.AnalyticsHandler)

	exports := r.Group("/analytics", middleware.ExportRateLimit(h.Config.ExportRatePerMin))
	exports.GET("/report.pdf", h.ReportHandler)
	exports.GET("/quick.pdf", h.QuickReportHandler)
}
