package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Zay2006/Slacking-Capstone/internal/http/handler"
	"github.com/Zay2006/Slacking-Capstone/internal/http/middleware"
)

type RouterConfig struct {
	SigningSecret string
	AdminAPIKey   string
}

// Handlers groups the handlers one bot instance serves.
type Handlers struct {
	Slack    *handler.SlackHandler
	Health   *handler.HealthHandler
	Roadmaps *handler.RoadmapHandler
}

func SetupRoutes(router *gin.Engine, h Handlers, cfg RouterConfig) {
	router.GET("/health", h.Health.Health)

	SlackRouter(router.Group("/slack", middleware.VerifySlackSignature(cfg.SigningSecret)), h.Slack)

	v1 := router.Group("/api/v1", middleware.RequireAdminKey(cfg.AdminAPIKey))
	{
		RoadmapRouter(v1.Group("/roadmaps", h.Roadmaps.RequireDatabase()), h.Roadmaps)
	}
}

func SlackRouter(router *gin.RouterGroup, h *handler.SlackHandler) {
	router.POST("/events", h.Events)
	router.POST("/commands", h.Commands)
	router.POST("/interactive-endpoints", h.Interactive)
}

func RoadmapRouter(router *gin.RouterGroup, h *handler.RoadmapHandler) {
	router.GET("", h.List)
	router.GET("/:project_id", h.Get)
	router.PUT("/:project_id", h.Put)
}
