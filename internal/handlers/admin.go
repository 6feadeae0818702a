package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"stellarreg/api/internal/middleware"
	"stellarreg/api/internal/models"
	"stellarreg/api/internal/service"
)

type registrationResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	RollNumber string    `json:"roll_number"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Branch     string    `json:"branch"`
	CreatedAt  time.Time `json:"created_at"`
}

func toRegistrationResponse(reg models.Registration) registrationResponse {
	return registrationResponse{
		ID:         reg.ID,
		Name:       reg.Name,
		RollNumber: reg.RollNumber,
		Email:      reg.Email,
		Phone:      reg.Phone,
		Branch:     reg.Branch,
		CreatedAt:  reg.CreatedAt,
	}
}

func (h HandlerSet) AdminListRegistrations(c *gin.Context) {
	adminID, _, _ := middleware.CurrentAdmin(c)

	regs, err := h.registrations.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list registrations failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch data"})
		return
	}

	items := make([]registrationResponse, 0, len(regs))
	for _, reg := range regs {
		items = append(items, toRegistrationResponse(reg))
	}

	h.log.Debug().Str("admin_id", adminID).Int("count", len(items)).Msg("registrations listed")
	c.JSON(http.StatusOK, gin.H{
		"registrations": items,
	})
}

type deleteRegistrationRequest struct {
	RegistrationID string `json:"registrationId"`
}

func (h HandlerSet) AdminDeleteRegistration(c *gin.Context) {
	adminID, _, _ := middleware.CurrentAdmin(c)

	var req deleteRegistrationRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil || req.RegistrationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Registration ID is required"})
		return
	}

	if err := h.registrations.Delete(c.Request.Context(), req.RegistrationID); err != nil {
		if errors.Is(err, service.ErrRegistrationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Registration not found"})
			return
		}
		h.log.Error().Err(err).Str("registration_id", req.RegistrationID).Msg("delete registration failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete registration"})
		return
	}

	h.log.Info().
		Str("admin_id", adminID).
		Str("registration_id", req.RegistrationID).
		Msg("registration deleted")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type branchCountResponse struct {
	Branch string `json:"branch"`
	Count  int    `json:"count"`
}

func (h HandlerSet) AdminRegistrationStats(c *gin.Context) {
	counts, err := h.registrations.BranchCounts(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("registration stats failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch data"})
		return
	}

	total := 0
	branches := make([]branchCountResponse, 0, len(counts))
	for _, bc := range counts {
		total += bc.Count
		branches = append(branches, branchCountResponse{Branch: bc.Branch, Count: bc.Count})
	}

	c.JSON(http.StatusOK, gin.H{
		"total":    total,
		"branches": branches,
	})
}
