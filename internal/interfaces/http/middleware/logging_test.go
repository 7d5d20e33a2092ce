package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/turtacn/FairReview-Intelligence/internal/testutil"
)

func TestRequestLogging(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := testutil.NewMockLogger()
	r := gin.New()
	r.Use(RequestLogging(logger, DefaultLoggingConfig()))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, p := range []string{"/ok", "/bad", "/boom", "/healthz"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.True(t, logger.HasMessage("info", "HTTP request completed"))
	assert.True(t, logger.HasMessage("warn", "HTTP request completed with client error"))
	assert.True(t, logger.HasMessage("error", "HTTP request completed with server error"))
	assert.Equal(t, 1, logger.Count("info"), "skipped paths are not logged")
}

func TestRequestLogging_Slow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := testutil.NewMockLogger()
	r := gin.New()
	r.Use(RequestLogging(logger, LoggingConfig{SlowThreshold: time.Nanosecond}))
	r.GET("/slow", func(c *gin.Context) {
		time.Sleep(time.Millisecond)
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.True(t, logger.HasMessage("warn", "HTTP request completed (slow)"))
}

//Personal.AI order the ending
