package handle_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/internal/handle"
	"github.com/yeisme/kitvault/pkg/internal/router"
	"github.com/yeisme/kitvault/pkg/internal/storage"
	"github.com/yeisme/kitvault/pkg/internal/storage/db"
	"github.com/yeisme/kitvault/pkg/internal/storage/kv"
	"github.com/yeisme/kitvault/pkg/middleware"
)

func healthEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()

	dbc, err := db.Open(ctx, sqlite.Open(":memory:"), db.WithPool(1, 1))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbc.Close() })

	kvc, err := kv.Open(ctx, &configs.KVConfig{Type: string(kv.KVTypeMemory)})
	require.NoError(t, err)

	mgr := &storage.Manager{DB: dbc, KV: kvc}

	e := gin.New()
	e.Use(middleware.InjectMiddleware(mgr, nil))
	router.RegisterHealthCheckRoute(e.Group("/api/v1"))

	return e
}

func TestHealthAggregate(t *testing.T) {
	w := serve(healthEngine(t), http.MethodGet, "/api/v1/health")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp handle.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	byName := map[string]string{}
	for _, c := range resp.Components {
		byName[c.Component] = c.Status
	}

	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, map[string]string{"db": "ok", "kv": "ok", "mq": "disabled", "s3": "unhealthy"}, byName)
}

func TestHealthComponent(t *testing.T) {
	e := healthEngine(t)

	for path, want := range map[string]int{
		"/api/v1/health/db":   http.StatusOK,
		"/api/v1/health/kv":   http.StatusOK,
		"/api/v1/health/s3":   http.StatusServiceUnavailable,
		"/api/v1/health/mq":   http.StatusServiceUnavailable,
		"/api/v1/health/tape": http.StatusNotFound,
	} {
		assert.Equal(t, want, serve(e, http.MethodGet, path).Code, path)
	}
}
