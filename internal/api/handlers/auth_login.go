// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fluffyriot/skillboard/internal/backend"
	"github.com/fluffyriot/skillboard/internal/session"
	"github.com/gin-gonic/gin"
)

func (h *Handler) LoginViewHandler(c *gin.Context) {
	if _, loggedIn := h.GetAuthenticatedUser(c); loggedIn {
		c.Redirect(http.StatusFound, "/analytics")
		return
	}

	c.HTML(http.StatusOK, "login.html", h.CommonData(c, gin.H{"title": "Login"}))
}

func (h *Handler) LoginSubmitHandler(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	if email == "" || password == "" {
		c.HTML(http.StatusBadRequest, "login.html", h.CommonData(c, gin.H{
			"error": "Email and password are required",
			"title": "Login",
			"email": email,
		}))
		return
	}

	user, err := h.Backend.Login(c.Request.Context(), email, password)
	if err != nil {
		status, msg := http.StatusBadGateway, "Login is unavailable right now, please try again later"
		if errors.Is(err, backend.ErrInvalidCredentials) {
			status, msg = http.StatusUnauthorized, "Invalid email or password"
		} else {
			h.Logger.Error("Login failed", "error", err)
		}
		c.HTML(status, "login.html", h.CommonData(c, gin.H{"error": msg, "title": "Login", "email": email}))
		return
	}

	if err := session.Save(c, user); err != nil {
		h.Logger.Error("Failed to save session", "user_id", user.ID, "error", err)
		h.renderError(c, http.StatusInternalServerError, "Could not start your session")
		return
	}

	h.Logger.Info("User logged in", "user_id", user.ID)
	c.Redirect(http.StatusFound, "/analytics")
}

func (h *Handler) LogoutHandler(c *gin.Context) {
	if err := session.Clear(c); err != nil {
		h.Logger.Warn("Failed to clear session", "error", err)
	}
	c.Redirect(http.StatusSeeOther, "/login")
}
