package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stellarreg/api/internal/middleware"
	"stellarreg/api/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Action   string `json:"action"`
}

type loginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	AdminID   string    `json:"adminId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h HandlerSet) AdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}
	if req.Action != "" && req.Action != "login" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.metrics.CounterLogins.WithLabelValues("invalid").Inc()
			h.log.Info().Str("username", req.Username).Msg("admin login rejected")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		h.metrics.CounterLogins.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Str("username", req.Username).Msg("admin login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		return
	}

	h.metrics.CounterLogins.WithLabelValues("success").Inc()
	h.log.Info().Str("admin_id", result.AdminID).Time("expires_at", result.ExpiresAt).Msg("admin login successful")

	c.JSON(http.StatusOK, loginResponse{
		Success:   true,
		Token:     result.Token,
		AdminID:   result.AdminID,
		ExpiresAt: result.ExpiresAt,
	})
}

func (h HandlerSet) AdminLogout(c *gin.Context) {
	adminID, token, ok := middleware.CurrentAdmin(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if err := h.auth.Logout(c.Request.Context(), adminID, token); err != nil {
		switch {
		case errors.Is(err, service.ErrSessionExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
		case errors.Is(err, service.ErrSessionInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
		default:
			h.log.Error().Err(err).Str("admin_id", adminID).Msg("admin logout failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		}
		return
	}

	h.log.Info().Str("admin_id", adminID).Msg("admin logged out")
	c.JSON(http.StatusOK, gin.H{"success": true})
}
