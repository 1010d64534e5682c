// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"net/http"
	"net/url"

	"github.com/fluffyriot/skillboard/internal/dashboard"
	"github.com/gin-gonic/gin"
)

func (h *Handler) RootHandler(c *gin.Context) {
	target := "/analytics"
	if tab := c.Query("tab"); tab != "" {
		target += "?tab=" + url.QueryEscape(string(dashboard.ParseTab(tab)))
	}
	c.Redirect(http.StatusFound, target)
}

func (h *Handler) DashboardHandler(c *gin.Context) {
	tab := dashboard.ParseTab(c.Query("tab"))
	view := h.Controller.Load(c.Request.Context(), h.identity(c), tab)

	if view.Phase == dashboard.PhaseUnauthenticated {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	data := h.CommonData(c, gin.H{
		"user":        view.User,
		"tab":         view.ActiveTab,
		"tabs":        dashboard.Tabs,
		"view":        view,
		"summary":     view.Summary(),
		"charts":      view.Charts(),
		"canExport":   view.CanExport(),
		"quickExport": h.Snapshotter != nil && h.Snapshotter.Enabled(),
	})
	notices, _ := data["notices"].([]string)
	for _, n := range view.Notices {
		notices = append(notices, n.Message)
	}
	data["notices"] = notices

	c.HTML(http.StatusOK, "dashboard.html", data)
}
