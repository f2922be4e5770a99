package router

import (
	"github.com/gin-gonic/gin"

	"github.com/piousdev/roel-agency/internal/container"
	"github.com/piousdev/roel-agency/internal/interface/middleware"
)

// NewEngine builds the gin engine with the global middleware chain taken from
// the container. The error boundary sits before CORS and routing so every
// failure below it, including unmatched routes, is written as an envelope.
func NewEngine() *gin.Engine {
	logger := container.GetLogger()
	rec := container.GetRecorder()

	var origins []string
	if cfg := container.GetConfig(); cfg != nil {
		origins = cfg.CORSOrigins()
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.RequestLogger(logger),
		middleware.Metrics(rec),
		middleware.ErrorHandler(logger, container.GetGate(), rec),
		middleware.CORS(origins),
	)
	r.NoRoute(middleware.NotFound())
	return r
}
