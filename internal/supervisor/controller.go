package supervisor

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type controllerRequest struct {
	Action string `json:"action" binding:"required"`
}

// RegisterRoutes mounts the controller endpoint and forwards /slack/* and the
// admin API to the current worker.
func (s *Supervisor) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", s.health)
	router.GET("/controller", s.status)
	router.POST("/controller", s.control)
	router.Any("/slack/*path", gin.WrapH(s))
	router.Any("/api/*path", gin.WrapH(s))
}

func (s *Supervisor) health(c *gin.Context) {
	st := s.Status()
	status := "ok"
	if st.State != StateRunning {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "supervisor": st})
}

func (s *Supervisor) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.Status())
}

func (s *Supervisor) control(c *gin.Context) {
	var req controllerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action is required"})
		return
	}

	if err := s.Do(req.Action); err != nil {
		switch {
		case errors.Is(err, ErrUnknownAction):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrNotRunning):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, s.Status())
}
