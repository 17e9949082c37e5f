package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/kitvault/pkg/configs"
)

func TestMountServesAppMetricsWithLabels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := configs.MetricsConfig{
		Enabled:        true,
		Path:           "/internal/metrics",
		RuntimeMetrics: true,
		Labels:         map[string]string{"region": "eu"},
	}
	require.NoError(t, InitMetrics(cfg))

	JobRuns.WithLabelValues("purge_drafts", ResultSuccess).Inc()
	KitsDiscarded.WithLabelValues("expired").Add(3)

	engine := gin.New()
	Mount(cfg, engine)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/internal/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `kitvault_job_runs_total{job="purge_drafts",region="eu",result="success"} 1`)
	assert.Contains(t, body, `kits_discarded_total{reason="expired",region="eu"} 3`)
	assert.Contains(t, body, "go_goroutines")

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMountDisabled(t *testing.T) {
	engine := gin.New()
	Mount(configs.MetricsConfig{}, engine)

	assert.Empty(t, engine.Routes())
}
