package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zay2006/Slacking-Capstone/internal/service"
)

// RoadmapHandler is the admin API over the roadmaps table.
type RoadmapHandler struct {
	roadmaps service.RoadmapGateway
}

func NewRoadmapHandler(roadmaps service.RoadmapGateway) *RoadmapHandler {
	return &RoadmapHandler{roadmaps: roadmaps}
}

// RequireDatabase short-circuits with 503 when no database is configured.
func (h *RoadmapHandler) RequireDatabase() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.roadmaps.Available() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "database not configured"})
			return
		}
		c.Next()
	}
}

func (h *RoadmapHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"roadmaps": h.roadmaps.List(c.Request.Context())})
}

func (h *RoadmapHandler) Get(c *gin.Context) {
	projectID := c.Param("project_id")

	roadmap := h.roadmaps.Get(c.Request.Context(), projectID)
	if roadmap == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "roadmap not found"})
		return
	}

	c.JSON(http.StatusOK, roadmap)
}

// Put stores the request body as the project's roadmap document.
func (h *RoadmapHandler) Put(c *gin.Context) {
	projectID := c.Param("project_id")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	if !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roadmap must be a JSON document"})
		return
	}

	roadmap := h.roadmaps.Upsert(c.Request.Context(), projectID, body)
	if roadmap == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save roadmap"})
		return
	}

	c.JSON(http.StatusOK, roadmap)
}
