package handler

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"valuescout/internal/service"

	"github.com/gin-gonic/gin"
)

const adminPasscodeHeader = "X-Admin-Passcode"

// AdminHandler serves the mission dashboard
type AdminHandler struct {
	missions *service.MissionService
	passcode string
}

// NewAdminHandler creates a new admin handler. An empty passcode disables the dashboard.
func NewAdminHandler(missions *service.MissionService, passcode string) *AdminHandler {
	return &AdminHandler{
		missions: missions,
		passcode: passcode,
	}
}

// RequirePasscode rejects requests without the admin passcode header
func (h *AdminHandler) RequirePasscode() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.passcode == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "FORBIDDEN", "message": "Admin dashboard is disabled"})
			return
		}
		given := c.GetHeader(adminPasscodeHeader)
		if subtle.ConstantTimeCompare([]byte(given), []byte(h.passcode)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "Invalid passcode"})
			return
		}
		c.Next()
	}
}

// Stats handles GET /api/v1/admin/stats?days=
func (h *AdminHandler) Stats(c *gin.Context) {
	if !h.missions.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "UNAVAILABLE", "message": "Mission store not configured"})
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 90 {
			badRequest(c, "days must be between 1 and 90")
			return
		}
		days = parsed
	}

	stats, err := h.missions.Stats(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL", "message": "Failed to load stats: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
