package errors

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observeGlobalLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	undo := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(undo)
	return logs
}

func serve(t *testing.T, err error) int {
	t.Helper()
	app := fiber.New()
	app.Get("/fail", func(c *fiber.Ctx) error { return HandleError(c, err) })

	resp, reqErr := app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.NoError(t, reqErr)
	return resp.StatusCode
}

func TestHandleErrorLogsServerFailureCause(t *testing.T) {
	logs := observeGlobalLogs(t)

	status := serve(t, ErrStorage(stderrors.New("disk full")))

	assert.Equal(t, http.StatusInternalServerError, status)
	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, CodeStorage, fields["code"])
	assert.Equal(t, "/fail", fields["path"])
	assert.Contains(t, fields["error"], "disk full")
}

func TestHandleErrorLogsUntypedErrors(t *testing.T) {
	logs := observeGlobalLogs(t)

	status := serve(t, stderrors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
}

func TestHandleErrorDoesNotLogClientErrors(t *testing.T) {
	logs := observeGlobalLogs(t)

	status := serve(t, ErrNotFound(stderrors.New("video 1")))

	assert.Equal(t, http.StatusNotFound, status)
	assert.Zero(t, logs.Len())
}
