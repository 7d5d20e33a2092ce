package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/prometheus"
)

// NewTestMetrics returns review metrics on a private registry with the
// namespace "test", together with the collector for scraping.
func NewTestMetrics(t *testing.T) (*prometheus.ReviewMetrics, prometheus.MetricsCollector) {
	t.Helper()
	c, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, logging.NewNopLogger())
	require.NoError(t, err)
	return prometheus.NewReviewMetrics(c), c
}

// ScrapeMetrics renders the collector in the text exposition format.
func ScrapeMetrics(t *testing.T, c prometheus.MetricsCollector) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

//Personal.AI order the ending
