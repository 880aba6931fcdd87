package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ppg-monitor-be/internal/config"
	"ppg-monitor-be/internal/sensor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Load()
	dir := t.TempDir()
	cfg.App.LogFilePath = filepath.Join(dir, "sensor.log.json")
	cfg.App.WsLogFilePath = filepath.Join(dir, "websocket.log")
	cfg.Sensor.Driver = "sim"
	cfg.Messaging.NatsURL = ""
	cfg.Messaging.RedisURL = ""
	return cfg
}

func TestContainerRunsWithSimulatedSensor(t *testing.T) {
	c, err := NewContainer(testConfig(t))
	require.NoError(t, err)
	assert.Nil(t, c.NatsPublisher)
	assert.Nil(t, c.Redis)

	ctx, cancel := context.WithCancel(context.Background())
	loopErr, err := c.Start(ctx)
	require.NoError(t, err)

	reqCtx, reqCancel := context.WithTimeout(context.Background(), time.Second)
	defer reqCancel()
	require.NoError(t, c.MeasurementLoop.SetFingerPresent(reqCtx, true))
	_, err = c.MeasurementLoop.Start(reqCtx)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		st := c.MeasurementLoop.Status()
		return st.Active() && st.IR > 25000
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-loopErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	c.Close()
}

func TestContainerUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sensor.Driver = "bogus"

	_, err := NewContainer(cfg)
	assert.ErrorIs(t, err, sensor.ErrUnknownDriver)
}
