package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is an interface for components that can report their health.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// ReadinessGate reports whether the process finished its own startup, such as
// building the review pipeline. It is consulted before any HealthChecker.
type ReadinessGate func() bool

// CheckerSource lists the checkers run by one readiness probe.
type CheckerSource func() []HealthChecker

// Static serves a fixed set of checkers.
func Static(checkers ...HealthChecker) CheckerSource {
	return func() []HealthChecker { return checkers }
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	source  CheckerSource
	gate    ReadinessGate
	version string
	startAt time.Time
	timeout time.Duration
}

func NewHealthHandler(version string, gate ReadinessGate, source CheckerSource) *HealthHandler {
	if source == nil {
		source = Static()
	}
	return &HealthHandler{
		source:  source,
		gate:    gate,
		version: version,
		startAt: time.Now(),
		timeout: 5 * time.Second,
	}
}

func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

type ReadinessResponse struct {
	Status     string                    `json:"status"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
}

// ComponentCheck represents the health status of a single component.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Liveness always answers 200 while the process runs.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness answers 503 until the gate opens or while any checker fails.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.gate != nil && !h.gate() {
		c.JSON(http.StatusServiceUnavailable, ReadinessResponse{Status: "starting"})
		return
	}
	checkers := h.source()
	if len(checkers) == 0 {
		c.JSON(http.StatusOK, ReadinessResponse{Status: "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()
	components := checkAll(ctx, checkers)

	resp := ReadinessResponse{Status: "ready", Components: components}
	for _, cc := range components {
		if cc.Status != "healthy" {
			resp.Status = "not_ready"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

// checkAll runs all health checkers concurrently and returns results.
func checkAll(ctx context.Context, checkers []HealthChecker) map[string]ComponentCheck {
	results := make(map[string]ComponentCheck, len(checkers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, checker := range checkers {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()

			start := time.Now()
			err := c.Check(ctx)
			cc := ComponentCheck{
				Status:  "healthy",
				Latency: time.Since(start).Truncate(time.Microsecond).String(),
			}
			if err != nil {
				cc.Status = "unhealthy"
				cc.Error = err.Error()
			}

			mu.Lock()
			results[c.Name()] = cc
			mu.Unlock()
		}(checker)
	}

	wg.Wait()
	return results
}

//Personal.AI order the ending
