// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"net/http"

	"github.com/fluffyriot/skillboard/internal/dashboard"
	"github.com/fluffyriot/skillboard/internal/middleware"
	"github.com/fluffyriot/skillboard/internal/models"
	"github.com/fluffyriot/skillboard/internal/session"
	"github.com/fluffyriot/skillboard/internal/stats"
	"github.com/gin-gonic/gin"
)

type AnalyticsResponse struct {
	User      models.User        `json:"user"`
	Phase     dashboard.Phase    `json:"phase"`
	CanExport bool               `json:"can_export"`
	Summary   stats.Summary      `json:"summary"`
	Charts    stats.Charts       `json:"charts"`
	Notices   []dashboard.Notice `json:"notices"`
}

func (h *Handler) identity(c *gin.Context) session.Identity {
	return middleware.Identity(c)
}

func (h *Handler) AnalyticsHandler(c *gin.Context) {
	view := h.Controller.Load(c.Request.Context(), h.identity(c), dashboard.TabPosts)
	if view.Phase == dashboard.PhaseUnauthenticated {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	notices := view.Notices
	if notices == nil {
		notices = []dashboard.Notice{}
	}

	c.JSON(http.StatusOK, AnalyticsResponse{
		User:      view.User,
		Phase:     view.Phase,
		CanExport: view.CanExport(),
		Summary:   view.Summary(),
		Charts:    view.Charts(),
		Notices:   notices,
	})
}
