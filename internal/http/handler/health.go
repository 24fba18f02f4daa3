package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zay2006/Slacking-Capstone/common/llm"
	"github.com/Zay2006/Slacking-Capstone/core/db"
)

// HealthChecker is satisfied by *db.DB.
type HealthChecker interface {
	Check(ctx context.Context) db.Health
}

type HealthHandler struct {
	gateway  llm.Gateway
	database HealthChecker
}

// NewHealthHandler builds the health handler. database may be nil when no
// DATABASE_URL is configured.
func NewHealthHandler(gateway llm.Gateway, database HealthChecker) *HealthHandler {
	return &HealthHandler{gateway: gateway, database: database}
}

type databaseHealth struct {
	Configured bool `json:"configured"`
	db.Health
}

type healthResponse struct {
	Status   string         `json:"status"`
	Model    string         `json:"model,omitempty"`
	LLM      llm.Status     `json:"llm"`
	Database databaseHealth `json:"database"`
}

// Health always answers 200 while the process is serving; degraded
// dependencies are reported in the body since the bot keeps working without
// them.
func (h *HealthHandler) Health(c *gin.Context) {
	resp := healthResponse{
		Status: "ok",
		Model:  h.gateway.Model(),
		LLM:    h.gateway.Status(),
	}

	if h.database != nil {
		resp.Database = databaseHealth{Configured: true, Health: h.database.Check(c.Request.Context())}
		if !resp.Database.Healthy {
			resp.Status = "degraded"
		}
	}
	if !resp.LLM.Available {
		resp.Status = "degraded"
	}

	c.JSON(http.StatusOK, resp)
}
