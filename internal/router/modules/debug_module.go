package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/piousdev/roel-agency/internal/infrastructure/metrics"
)

// DebugModule serves the Prometheus scrape endpoint.
type DebugModule struct {
	Gatherer prometheus.Gatherer
}

func NewDebugModule(g prometheus.Gatherer) *DebugModule { return &DebugModule{Gatherer: g} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rg.GET("/metrics", gin.WrapH(metrics.Handler(m.Gatherer)))
}
