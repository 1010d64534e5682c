// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/fluffyriot/skillboard/internal/config"
	"github.com/gin-gonic/gin"
)

func (h *Handler) HealthCheckHandler(c *gin.Context) {
	if h.Backend == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "failure", "details": "backend client not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.Backend.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "failure", "details": "backend ping failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": config.AppVersion})
}
