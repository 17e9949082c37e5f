package handle_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/internal/handle"
	"github.com/yeisme/kitvault/pkg/internal/model"
	"github.com/yeisme/kitvault/pkg/internal/router"
	"github.com/yeisme/kitvault/pkg/internal/service"
	"github.com/yeisme/kitvault/pkg/internal/storage/db"
	"github.com/yeisme/kitvault/pkg/internal/types"
	"github.com/yeisme/kitvault/pkg/kit"
	"github.com/yeisme/kitvault/pkg/middleware"
)

type memStore struct{}

func (memStore) PresignPut(_ context.Context, key string, _ time.Duration) (string, error) {
	return "http://s3.test/put/" + key, nil
}

func (memStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "http://s3.test/get/" + key, nil
}

func (memStore) ObjectURL(key string) string { return "http://s3.test/" + key }

func (memStore) RemovePrefix(context.Context, string) (int, error) { return 0, nil }

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()

	client, err := db.Open(ctx, sqlite.Open(":memory:"), db.WithPool(1, 1))
	require.NoError(t, err)
	require.NoError(t, client.Migrate(ctx, model.Models()...))
	t.Cleanup(func() { _ = client.Close() })

	svc := service.NewKitServiceWith(client.GetDB(), memStore{}, service.WithImportConfig(configs.Defaults().Import))

	prev := handle.KitServiceFactory
	handle.KitServiceFactory = func(*gin.Context) *service.KitService { return svc }
	t.Cleanup(func() { handle.KitServiceFactory = prev })

	e := gin.New()
	router.RegisterImportRoutes(e.Group("/import", middleware.ETagMiddleware()))

	return e
}

func do(t *testing.T, e *gin.Engine, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())

	return v
}

func TestImportFlow(t *testing.T) {
	e := newEngine(t)

	w := do(t, e, http.MethodPost, "/import/constructionKit", types.CreateKitRequest{Name: "Night Drive"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	kitID := decode[types.CreateKitResponse](t, w).ID
	require.NotEmpty(t, kitID)

	w = do(t, e, http.MethodPost, "/import/upload/"+kitID, types.PresignRequest{Files: []types.PresignFile{
		{Filename: "loop.wav", ContentType: "audio/wav"},
		{Filename: "kick.wav", ContentType: "audio/wav"},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	presigned := decode[types.PresignResponse](t, w)
	require.Len(t, presigned.Uploads, 2)
	assert.Equal(t, "loop.wav", presigned.Uploads[0].Filename)

	files := []types.NewContentFile{
		{FileName: "loop.wav", Category: kit.CategoryFullLoop, Key: presigned.Uploads[0].Key, URL: presigned.Uploads[0].URL},
		{FileName: "kick.wav", Category: kit.CategoryOneShot, Type: "Drums > Kick", Key: presigned.Uploads[1].Key, URL: presigned.Uploads[1].URL},
	}

	w = do(t, e, http.MethodPost, "/import/constructionKit/"+kitID, types.CreateContentsRequest{Files: files, DefaultFullLoopFileName: "loop.wav"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, e, http.MethodGet, "/import/constructionKit/"+kitID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	got := decode[types.KitResponse](t, w)
	require.Len(t, got.Contents, 2)
	assert.NotEmpty(t, got.DefaultFullLoopID)

	w = do(t, e, http.MethodGet, "/import/constructionKit/"+kitID, nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.Bytes())

	var kick string

	for _, c := range got.Contents {
		if c.ContentName == "kick.wav" {
			kick = c.ID
		}
	}

	w = do(t, e, http.MethodPut, "/import/constructionKit/content/"+kick, types.UpdateContentRequest{Category: kit.CategoryFullLoop})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, e, http.MethodPut, "/import/constructionKit/"+kitID, types.UpdateDefaultRequest{DefaultFullLoopIdentifier: kick})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 内容变化后旧 ETag 失效
	w = do(t, e, http.MethodGet, "/import/constructionKit/"+kitID, nil, "If-None-Match", etag)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, kick, decode[types.KitResponse](t, w).DefaultFullLoopID)

	w = do(t, e, http.MethodDelete, "/import/constructionKit/"+kitID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, e, http.MethodGet, "/import/constructionKit/"+kitID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportErrors(t *testing.T) {
	e := newEngine(t)

	w := do(t, e, http.MethodPost, "/import/constructionKit", types.CreateKitRequest{Name: "errors"})
	require.Equal(t, http.StatusCreated, w.Code)

	kitID := decode[types.CreateKitResponse](t, w).ID

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown kit", http.MethodGet, "/import/constructionKit/missing", nil, http.StatusNotFound},
		{"empty presign", http.MethodPost, "/import/upload/" + kitID, types.PresignRequest{}, http.StatusBadRequest},
		{"path in filename", http.MethodPost, "/import/upload/" + kitID, types.PresignRequest{Files: []types.PresignFile{{Filename: "../loop.wav"}}}, http.StatusBadRequest},
		{"unknown category", http.MethodPut, "/import/constructionKit/content/x", types.UpdateContentRequest{Category: "Vocals"}, http.StatusBadRequest},
		{"unknown content", http.MethodPut, "/import/constructionKit/content/x", types.UpdateContentRequest{Category: kit.CategoryFullLoop}, http.StatusNotFound},
		{"malformed body", http.MethodPost, "/import/constructionKit/" + kitID, "not json", http.StatusBadRequest},
		{"missing default", http.MethodPost, "/import/constructionKit/" + kitID, types.CreateContentsRequest{Files: []types.NewContentFile{
			{FileName: "loop.wav", Category: kit.CategoryFullLoop, Key: "kits/" + kitID + "/1-loop.wav"},
		}}, http.StatusBadRequest},
		{"default not in kit", http.MethodPut, "/import/constructionKit/" + kitID, types.UpdateDefaultRequest{DefaultFullLoopIdentifier: "nope"}, http.StatusBadRequest},
		{"delete unknown kit", http.MethodDelete, "/import/constructionKit/missing", nil, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, e, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.NotEmpty(t, decode[types.ErrorResponse](t, w).Error)
		})
	}

	// 重复文件名返回 409
	w = do(t, e, http.MethodPost, "/import/upload/"+kitID, types.PresignRequest{Files: []types.PresignFile{{Filename: "a.wav"}, {Filename: "a.wav"}}})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestNoRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	e := gin.New()
	e.NoRoute(handle.NoRoute)

	w := do(t, e, http.MethodGet, "/import/nothing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[types.ErrorResponse](t, w).Error, "/import/nothing")
}
