package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_CuentaOperacionesPorResultado(t *testing.T) {
	r := NewRecorder("test")

	r.ObserveOperation("adjust", "ok", 10*time.Millisecond)
	r.ObserveOperation("adjust", "ok", 12*time.Millisecond)
	r.ObserveOperation("adjust", "insufficient_stock", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.operations.WithLabelValues("adjust", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("adjust", "insufficient_stock")))
}

func TestRecorder_ReintentosYRepeticiones(t *testing.T) {
	r := NewRecorder("test")

	r.IncRetry("transfer")
	r.IncRetry("transfer")
	r.IncReplay("adjust")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.retries.WithLabelValues("transfer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.replays.WithLabelValues("adjust")))
}

func TestRecorder_HandlerExponeMetricas(t *testing.T) {
	r := NewRecorder("test")
	r.IncRetry("adjust")

	app := fiber.New()
	app.Get("/metrics", r.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
