package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"video-hosting/internal/delivery/http/handlers"
	"video-hosting/internal/delivery/http/routers"
	"video-hosting/internal/domain/dto"
	"video-hosting/internal/infrastructure/repositories"
	"video-hosting/internal/infrastructure/storage"
	"video-hosting/internal/pkg/metrics"
	"video-hosting/internal/usecases"
	consts "video-hosting/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubEnqueuer struct {
	mu  sync.Mutex
	ids []string
}

func (s *stubEnqueuer) Enqueue(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, id)
}

func (s *stubEnqueuer) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

type testServer struct {
	app      *fiber.App
	repo     *repositories.InMemoryRepository
	assets   *storage.LocalStorage
	enqueuer *stubEnqueuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	blobs, err := storage.NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)
	s := &testServer{
		app:      fiber.New(),
		repo:     repositories.NewInMemoryRepository(),
		assets:   storage.NewLocalStorage(t.TempDir()),
		enqueuer: &stubEnqueuer{},
	}
	m := metrics.NewPipeline()
	uploads := usecases.NewUploadService(s.repo, s.repo, blobs, s.assets, s.enqueuer, usecases.UploadSettings{
		ChunkSize: 8, MaxFileSize: 1024, Concurrency: 3, StaleAfter: 2 * time.Hour, JanitorInterval: time.Hour,
	}, m, zap.NewNop())
	cleanup := usecases.NewCleanupService(s.repo, s.repo, blobs, s.assets, usecases.CleanupSettings{
		StaleAfter: 2 * time.Hour, SessionTTL: time.Hour,
	}, m, zap.NewNop())

	routers.SetupUploadRoutes(s.app, handlers.NewUploadHandler(uploads), handlers.NewCleanupHandler(cleanup))
	routers.SetupMediaRoutes(s.app, handlers.NewMediaHandler(uploads))
	return s
}

func (s *testServer) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func jsonRequest(method, target string, v interface{}) *http.Request {
	payload, _ := json.Marshal(v)
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func TestChunkedUploadOverHTTP(t *testing.T) {
	s := newTestServer(t)
	payload := []byte("abcdefghijklmnopqrst") // 20 bytes, chunks of 8

	resp, body := s.do(t, jsonRequest(http.MethodPost, "/api/v1/admin/videos", map[string]interface{}{
		"name": "Trip", "isPremium": false, "bufferSize": len(payload), "extension": "mp4",
	}))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	var created dto.CreateUploadResponse
	require.NoError(t, json.Unmarshal(body, &created))
	require.Len(t, created.Chunks, 3)

	for i := len(created.Chunks) - 1; i >= 0; i-- {
		c := created.Chunks[i]
		resp, body := s.do(t, multipartRequest(t, http.MethodPut, "/api/v1/admin/videos/"+created.VideoID,
			map[string]string{"chunkId": c.ID}, "blob", payload[c.Start:c.End+1]))
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	}

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/admin/videos/"+created.VideoID+"/status", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var status dto.UploadStatusResponse
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, consts.VideoStatusProcessing, status.Status)
	assert.Zero(t, status.RemainingChunks)
	assert.Equal(t, []string{created.VideoID}, s.enqueuer.snapshot())

	// a chunk for a video past UPLOADING is a conflict
	resp, _ = s.do(t, multipartRequest(t, http.MethodPut, "/api/v1/admin/videos/"+created.VideoID,
		map[string]string{"chunkId": created.Chunks[0].ID}, "blob", payload[:8]))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, jsonRequest(http.MethodPost, "/api/v1/admin/videos", map[string]interface{}{
		"name": "Trip", "bufferSize": 0, "extension": "mp4",
	}))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "invalid_size")

	resp, _ = s.do(t, multipartRequest(t, http.MethodPut, "/api/v1/admin/videos/"+uuid.NewString(),
		map[string]string{"chunkId": uuid.NewString()}, "blob", []byte("x")))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/admin/videos/"+uuid.NewString(), nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSingleShotAndDelete(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, multipartRequest(t, http.MethodPost, "/api/v1/admin/videos/v2",
		map[string]string{"name": "Clip", "isPremium": "true"}, "clip.webm", []byte("whole-file")))
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode, string(body))

	var out dto.SingleShotUploadResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, []string{out.VideoID}, s.enqueuer.snapshot())

	resp, _ = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/admin/videos/"+out.VideoID, nil))
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	resp, body = s.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/admin/cleanup", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var cleanup dto.CleanupResponse
	require.NoError(t, json.Unmarshal(body, &cleanup))
	assert.Equal(t, 1, cleanup.VideosDeleted)
}

func TestStreamAndThumbnail(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, body := s.do(t, multipartRequest(t, http.MethodPost, "/api/v1/admin/videos/v2",
		map[string]string{"name": "Clip"}, "clip.mp4", []byte("source")))
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	var out dto.SingleShotUploadResponse
	require.NoError(t, json.Unmarshal(body, &out))

	publish := func(key, content string) {
		src := filepath.Join(t.TempDir(), "asset")
		require.NoError(t, os.WriteFile(src, []byte(content), 0644))
		require.NoError(t, s.assets.Put(ctx, key, src))
	}
	publish(storage.VideoKey(out.VideoID), "0123456789")
	publish(storage.ThumbnailKey(out.VideoID), "jpeg-bytes")
	moved, err := s.repo.MarkReady(ctx, uuid.MustParse(out.VideoID), time.Now())
	require.NoError(t, err)
	require.True(t, moved)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+out.VideoID+"/stream", nil)
	req.Header.Set("Range", "bytes=2-5")
	resp, body = s.do(t, req)
	assert.Equal(t, fiber.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, "2345", string(body))
	assert.Equal(t, "bytes 2-5/10", resp.Header.Get("Content-Range"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+out.VideoID+"/stream", nil)
	req.Header.Set("Range", "bytes=50-")
	resp, _ = s.do(t, req)
	assert.Equal(t, fiber.StatusRequestedRangeNotSatisfiable, resp.StatusCode)

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+out.VideoID+"/thumbnail", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "jpeg-bytes", string(body))
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "image/jpeg"))
}

func TestConfigEndpoint(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/config", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var settings dto.PipelineSettingsResponse
	require.NoError(t, json.Unmarshal(body, &settings))
	assert.Equal(t, int64(8), settings.ChunkSize)
	assert.Equal(t, 3, settings.TranscodeConcurrency)
}
