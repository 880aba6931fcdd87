package tracer

import (
	"context"
	"testing"

	"ppg-monitor-be/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestInitTracerDisabled(t *testing.T) {
	shutdown := InitTracer(config.TelemetryConfig{OtelEnabled: false})
	assert.NoError(t, shutdown(context.Background()))
}
