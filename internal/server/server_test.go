package server

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"ppg-monitor-be/internal/bootstrap"
	"ppg-monitor-be/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerRoutes(t *testing.T) {
	cfg := config.Load()
	dir := t.TempDir()
	cfg.App.LogFilePath = filepath.Join(dir, "sensor.log.json")
	cfg.App.WsLogFilePath = filepath.Join(dir, "websocket.log")
	cfg.Sensor.Driver = "sim"
	cfg.Messaging.NatsURL = ""
	cfg.Messaging.RedisURL = ""

	container, err := bootstrap.NewContainer(cfg)
	require.NoError(t, err)
	defer container.Close()

	app := New(cfg, container).GetApp()

	for path, want := range map[string]int{
		"/health":       200,
		"/beat":         200,
		"/results":      200,
		"/results/none": 404,
		"/ws":           426,
		"/missing":      404,
	} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, path)
	}
}
