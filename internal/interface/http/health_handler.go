package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/piousdev/roel-agency/pkg/response"
)

type HealthHandler struct {
	now func() time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{now: time.Now}
}

// Health GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, response.NewHealth(h.now()))
}
