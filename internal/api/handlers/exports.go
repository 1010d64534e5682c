// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fluffyriot/skillboard/internal/dashboard"
	"github.com/fluffyriot/skillboard/internal/report"
	"github.com/fluffyriot/skillboard/internal/session"
	"github.com/gin-gonic/gin"
)

const noDataNotice = "There is nothing to export yet."

// loadExportable loads the dashboard data for an export. It returns nil
// after redirecting when there is nothing to export.
func (h *Handler) loadExportable(c *gin.Context, tab dashboard.Tab) *dashboard.View {
	view := h.Controller.Load(c.Request.Context(), h.identity(c), tab)
	if view.Phase == dashboard.PhaseUnauthenticated {
		c.Redirect(http.StatusFound, "/login")
		return nil
	}
	if !view.CanExport() {
		session.AddNotice(c, noDataNotice)
		c.Redirect(http.StatusSeeOther, "/analytics?tab="+string(tab))
		return nil
	}
	return view
}

func (h *Handler) sendDocument(c *gin.Context, userID string, doc report.Document) {
	if h.Archive != nil {
		h.Archive.Submit(userID, doc)
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Name))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}

func (h *Handler) ReportHandler(c *gin.Context) {
	view := h.loadExportable(c, dashboard.TabPosts)
	if view == nil {
		return
	}

	doc, err := h.Renderer.Render(c.Request.Context(), report.Input{
		User:        view.User,
		Posts:       view.Posts,
		Progress:    view.Progress,
		Exchanges:   view.Exchanges,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		if errors.Is(err, report.ErrNothingToExport) {
			session.AddNotice(c, noDataNotice)
			c.Redirect(http.StatusSeeOther, "/analytics")
			return
		}
		h.Logger.Error("Failed to render report", "user_id", view.User.ID, "error", err)
		h.renderError(c, http.StatusInternalServerError, "Failed to generate your report")
		return
	}
	if len(doc.Failed) > 0 {
		h.Logger.Warn("Report rendered with failed sections", "user_id", view.User.ID, "sections", doc.Failed)
	}

	h.sendDocument(c, view.User.ID, doc)
}

func (h *Handler) QuickReportHandler(c *gin.Context) {
	if h.Snapshotter == nil || !h.Snapshotter.Enabled() {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "quick export is not enabled"})
		return
	}

	tab := dashboard.ParseTab(c.Query("tab"))
	view := h.loadExportable(c, tab)
	if view == nil {
		return
	}

	cookie, err := c.Request.Cookie(session.CookieName)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	doc, err := h.Snapshotter.Snapshot(c.Request.Context(), cookie, "/analytics?tab="+string(tab))
	if err != nil {
		h.Logger.Error("Failed to capture quick report", "user_id", view.User.ID, "error", err)
		h.renderError(c, http.StatusInternalServerError, "Failed to capture your dashboard")
		return
	}

	h.sendDocument(c, view.User.ID, doc)
}
