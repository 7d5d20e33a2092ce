package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                  { return s.name }
func (s stubChecker) Check(_ context.Context) error { return s.err }

func serve(t *testing.T, h *HealthHandler, path string) (*httptest.ResponseRecorder, ReadinessResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestLiveness(t *testing.T) {
	h := NewHealthHandler("v1.2.3", func() bool { return false }, Static(stubChecker{name: "redis", err: errors.New("down")}))
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var body LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "alive", body.Status)
	assert.Equal(t, "v1.2.3", body.Version)
}

func TestReadiness(t *testing.T) {
	t.Run("no checkers", func(t *testing.T) {
		w, body := serve(t, NewHealthHandler("dev", nil, nil), "/readyz")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ready", body.Status)
	})

	t.Run("gate closed", func(t *testing.T) {
		w, body := serve(t, NewHealthHandler("dev", func() bool { return false }, nil), "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "starting", body.Status)
	})

	t.Run("all healthy", func(t *testing.T) {
		h := NewHealthHandler("dev", func() bool { return true }, Static(stubChecker{name: "redis"}, stubChecker{name: "minio"}))
		w, body := serve(t, h, "/readyz")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ready", body.Status)
		assert.Equal(t, "healthy", body.Components["redis"].Status)
		assert.Equal(t, "healthy", body.Components["minio"].Status)
	})

	t.Run("one unhealthy", func(t *testing.T) {
		h := NewHealthHandler("dev", nil, Static(stubChecker{name: "redis"}, stubChecker{name: "postgres", err: errors.New("connection refused")}))
		w, body := serve(t, h, "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "not_ready", body.Status)
		assert.Equal(t, "unhealthy", body.Components["postgres"].Status)
		assert.Equal(t, "connection refused", body.Components["postgres"].Error)
	})
}

//Personal.AI order the ending
