package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Zay2006/Slacking-Capstone/internal/http/middleware"
)

// NewEngine builds a gin engine with the shared middleware stack. An empty
// otelService leaves tracing off.
func NewEngine(otelService string) *gin.Engine {
	engine := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if otelService != "" {
		engine.Use(otelgin.Middleware(otelService))
	}
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())

	return engine
}
