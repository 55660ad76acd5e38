package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"valuescout/internal/service"

	"github.com/gin-gonic/gin"
)

// MissionHandler handles mission lookups
type MissionHandler struct {
	missions *service.MissionService
	maxLimit int
}

// NewMissionHandler creates a new mission handler
func NewMissionHandler(missions *service.MissionService) *MissionHandler {
	return &MissionHandler{missions: missions, maxLimit: 20}
}

// Similar handles GET /api/v1/missions/similar?q=&limit=
func (h *MissionHandler) Similar(c *gin.Context) {
	if !h.missions.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "UNAVAILABLE", "message": "Mission store not configured"})
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		badRequest(c, "q must not be empty")
		return
	}

	limit := 5
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	missions, err := h.missions.Similar(c.Request.Context(), query, limit)
	if errors.Is(err, service.ErrMissionsDisabled) || errors.Is(err, service.ErrEmbedderMissing) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "UNAVAILABLE", "message": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    query,
		"missions": missions,
	})
}
