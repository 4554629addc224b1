package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fixit/helpdesk-service/internal/config"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/incidents", "GET", 200, 2*time.Millisecond)
	m.RecordRequest("/incidents", "GET", 200, 4*time.Millisecond)
	m.RecordError("/incidents", "POST", "VALIDATION_FAILED")

	snap := m.Snapshot()
	require.Equal(t, int64(2), snap.Requests["/incidents|GET|200"])
	require.InDelta(t, 3.0, snap.AvgLatencyMS["/incidents|GET|200"], 0.001)
	require.Equal(t, int64(1), snap.Errors["/incidents|POST|VALIDATION_FAILED"])

	var nilMetrics *Metrics
	nilMetrics.RecordRequest("/x", "GET", 200, time.Millisecond)
	require.Empty(t, nilMetrics.Snapshot().Requests)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := NewMetrics()

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/incidents/:id", func(c *fiber.Ctx) error {
		return c.Status(http.StatusAccepted).SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/incidents/INC-100001", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "/incidents/INC-100001", fields["path"])
	require.EqualValues(t, http.StatusAccepted, fields["status"])
	require.Equal(t, int64(1), metrics.Snapshot().Requests["/incidents/:id|GET|202"])
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "not-a-level"}, config.AppConfig{Name: "fixit", Env: "production"})
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zap.InfoLevel))
	require.False(t, logger.Core().Enabled(zap.DebugLevel))
}
