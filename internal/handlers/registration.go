package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stellarreg/api/internal/models"
	"stellarreg/api/internal/service"
)

type createRegistrationRequest struct {
	Name       string `json:"name" binding:"required,min=2,max=100"`
	RollNumber string `json:"roll_number" binding:"required,min=3,max=50"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone" binding:"required,min=10,max=15"`
	Branch     string `json:"branch" binding:"required"`
}

func (h HandlerSet) CreateRegistration(c *gin.Context) {
	var req createRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid registration details"})
		return
	}

	reg, err := h.registrations.Create(c.Request.Context(), service.CreateRegistrationInput{
		Name:       req.Name,
		RollNumber: req.RollNumber,
		Email:      req.Email,
		Phone:      req.Phone,
		Branch:     req.Branch,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyRegistered):
			c.JSON(http.StatusConflict, gin.H{"error": "You are already registered with this roll number"})
		case errors.Is(err, service.ErrUnknownBranch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown branch"})
		case errors.Is(err, service.ErrRollNumberRequired), errors.Is(err, service.ErrInvalidRollNumber):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid roll number format"})
		default:
			h.log.Error().Err(err).Msg("create registration failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		}
		return
	}

	h.metrics.CounterRegistrations.Inc()
	h.log.Info().Str("registration_id", reg.ID).Str("branch", reg.Branch).Msg("registration created")

	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"registration": toRegistrationResponse(reg),
	})
}

type searchRequest struct {
	RollNumber string `json:"roll_number"`
}

// searchResult deliberately omits id and phone.
type searchResult struct {
	Name       string    `json:"name"`
	RollNumber string    `json:"roll_number"`
	Email      string    `json:"email"`
	Branch     string    `json:"branch"`
	CreatedAt  time.Time `json:"created_at"`
}

func (h HandlerSet) SearchRegistration(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Roll number is required"})
		return
	}

	reg, found, err := h.registrations.SearchByRollNumber(c.Request.Context(), req.RollNumber)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRollNumberRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Roll number is required"})
		case errors.Is(err, service.ErrInvalidRollNumber):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid roll number format"})
		default:
			h.log.Error().Err(err).Msg("registration search failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		}
		return
	}

	if !found {
		c.JSON(http.StatusOK, gin.H{"found": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"found": true,
		"registration": searchResult{
			Name:       reg.Name,
			RollNumber: reg.RollNumber,
			Email:      reg.Email,
			Branch:     reg.Branch,
			CreatedAt:  reg.CreatedAt,
		},
	})
}

func (h HandlerSet) ListBranches(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"branches": models.Branches})
}
