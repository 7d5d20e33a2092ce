package http

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FairReview-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/FairReview-Intelligence/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the dependencies of the operational routes.
type RouterConfig struct {
	// Mode is the gin mode: debug, release or test. Empty keeps the current one.
	Mode    string
	Version string

	Ready    handlers.ReadinessGate
	Checkers handlers.CheckerSource

	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter serves /healthz, /readyz and, with a collector, /metrics.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogging(cfg.Logger, middleware.DefaultLoggingConfig()))

	handlers.NewHealthHandler(cfg.Version, cfg.Ready, cfg.Checkers).RegisterRoutes(r)
	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}
	return r
}

//Personal.AI order the ending
