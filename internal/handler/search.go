package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"valuescout/internal/model"
	"valuescout/internal/service"

	"github.com/gin-gonic/gin"
)

// ScoutHandler handles analysis and search HTTP requests
type ScoutHandler struct {
	scout *service.Scout
}

// NewScoutHandler creates a new scout handler
func NewScoutHandler(scout *service.Scout) *ScoutHandler {
	return &ScoutHandler{scout: scout}
}

// Analyze handles POST /api/v1/analyze
func (h *ScoutHandler) Analyze(c *gin.Context) {
	var req model.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		badRequest(c, "query must not be empty")
		return
	}

	result, err := h.scout.Analyze(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Search handles POST /api/v1/search
func (h *ScoutHandler) Search(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		badRequest(c, "query must not be empty")
		return
	}

	result, err := h.scout.Search(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Scout handles POST /api/v1/scout
func (h *ScoutHandler) Scout(c *gin.Context) {
	var req model.ScoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		badRequest(c, "query must not be empty")
		return
	}

	response, err := h.scout.Run(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ScoutStream handles POST /api/v1/scout/stream - SSE streaming scout
func (h *ScoutHandler) ScoutStream(c *gin.Context) {
	var req model.ScoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		badRequest(c, "query must not be empty")
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	sendSSE(c, "start", map[string]any{"query": req.Query})
	flusher.Flush()

	response, err := h.scout.RunStream(c.Request.Context(), &req, func(event string, data any) error {
		if err := c.Request.Context().Err(); err != nil {
			return err
		}
		sendSSE(c, event, data)
		flusher.Flush()
		return nil
	})

	if err != nil {
		_ = c.Error(err)
		sendSSE(c, "error", errorBody(err))
		flusher.Flush()
		return
	}

	sendSSE(c, "results", response)
	flusher.Flush()

	sendSSE(c, "done", map[string]any{"took_ms": response.Took})
	flusher.Flush()
}

// ResolveRegion handles GET /api/v1/regions/resolve?timeZone=
func (h *ScoutHandler) ResolveRegion(c *gin.Context) {
	region := service.ResolveRegion(service.FixedTimeZone(c.Query("timeZone")))
	c.JSON(http.StatusOK, region)
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}
