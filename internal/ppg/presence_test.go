package ppg_test

import (
	"testing"

	"ppg-monitor-be/internal/ppg"

	"github.com/stretchr/testify/assert"
)

func TestPresenceMonitorGracePeriod(t *testing.T) {
	m := ppg.NewPresenceMonitor(25000, 2000*ms)

	p := m.Observe(30000, 1000*ms)
	assert.True(t, p.Present)
	assert.False(t, p.Returned)

	p = m.Observe(100, 1100*ms)
	assert.False(t, p.Present)
	assert.True(t, p.Removed)
	assert.Zero(t, p.Missing)

	p = m.Observe(100, 3000*ms)
	assert.False(t, p.Removed)
	assert.Equal(t, 1900*ms, p.Missing)
	assert.False(t, p.Expired)

	p = m.Observe(100, 3100*ms)
	assert.Equal(t, 2000*ms, p.Missing)
	assert.False(t, p.Expired, "expiry needs strictly more than the grace period")

	p = m.Observe(100, 3200*ms)
	assert.True(t, p.Expired)

	p = m.Observe(30000, 3300*ms)
	assert.True(t, p.Present)
	assert.True(t, p.Returned)
}

func TestPresenceMonitorThreshold(t *testing.T) {
	m := ppg.NewPresenceMonitor(25000, 2000*ms)

	assert.True(t, m.Present(25000))
	assert.False(t, m.Present(24999))
}

func TestPresenceMonitorReset(t *testing.T) {
	m := ppg.NewPresenceMonitor(25000, 2000*ms)
	m.Observe(100, 1000*ms)
	m.Reset()

	p := m.Observe(100, 9000*ms)
	assert.True(t, p.Removed)
	assert.Zero(t, p.Missing)
}
