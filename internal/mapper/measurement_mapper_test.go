package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"ppg-monitor-be/internal/dto"
	"ppg-monitor-be/internal/measurement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0", FormatUptime(0))
	assert.Equal(t, "1530", FormatUptime(1530*time.Millisecond+400*time.Microsecond))
}

func TestToStreamEvent(t *testing.T) {
	m := NewMeasurementMapper()

	beat := m.ToStreamEvent(measurement.BeatDetected{SessionID: "s1", At: 1030 * time.Millisecond, Count: 4, BPM: 72})
	require.NotNil(t, beat)
	assert.Equal(t, dto.BeatDetectedEvent{
		Event:      "beat_detected",
		BeatTime:   "1030",
		BeatCount:  4,
		CurrentBPM: 72,
		SessionID:  "s1",
	}, beat)

	removed := m.ToStreamEvent(measurement.FingerRemoved{SessionID: "s1", At: 3 * time.Second})
	assert.Equal(t, "finger_removed", removed.EventType())
	assert.Equal(t, MessageFingerRemoved, removed.(dto.FingerRemovedEvent).Message)

	assert.Nil(t, m.ToStreamEvent(measurement.FingerLost{SessionID: "s1"}))
	assert.Nil(t, m.ToStreamEvent(measurement.FingerReturned{SessionID: "s1"}))
}

func TestToSensorData(t *testing.T) {
	m := NewMeasurementMapper()

	active := m.ToSensorData(measurement.Status{
		SessionID:     "s1",
		State:         measurement.StateActive,
		InstantBPM:    71,
		SpO2:          97,
		BeatsDetected: 12,
		FingerPresent: true,
		IR:            52340.7,
		Red:           49870.2,
		Uptime:        2500 * time.Millisecond,
	})
	assert.Equal(t, "sensor_data", active.Event)
	assert.True(t, active.ServerBusy)
	assert.True(t, active.MeasurementActive)
	assert.Nil(t, active.FinalHeartRate)
	assert.Equal(t, int64(52340), active.IRValue)

	raw, err := json.Marshal(active)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "final_heart_rate")

	complete := m.ToStreamEvent(measurement.Completed{
		Result: measurement.Result{SessionID: "s1", HeartRate: 72.2857},
		Status: measurement.Status{SessionID: "s1", State: measurement.StateComplete, FinalBPM: 72.2857},
	}).(dto.SensorDataEvent)
	assert.Equal(t, "measurement_complete", complete.Event)
	assert.False(t, complete.ServerBusy)
	require.NotNil(t, complete.FinalHeartRate)
	assert.Equal(t, 72.3, *complete.FinalHeartRate)
}

func TestReplies(t *testing.T) {
	m := NewMeasurementMapper()
	st := measurement.Status{State: measurement.StateComplete, BeatsDetected: 70, Uptime: 90 * time.Second}

	connected := m.ToConnected(st)
	assert.Equal(t, "ok", connected.Status)
	assert.True(t, connected.MeasurementComplete)
	assert.False(t, connected.ServerBusy)

	status := m.ToStatus(st)
	assert.Equal(t, 70, status.BeatsDetected)
	assert.Equal(t, "90000", status.Timestamp)

	assert.Equal(t, MessageBusy, m.ToError(MessageBusy, st).Message)
	assert.Equal(t, "pong", m.ToPong(st).Event)
}

func TestHTTPBodies(t *testing.T) {
	m := NewMeasurementMapper()

	started := m.ToReadingsStarted(measurement.Started{SessionID: "s2", At: 5 * time.Second}, time.Minute)
	assert.Equal(t, "60-second measurement started. Check /beat for progress.", started.Message)
	assert.Equal(t, "5000", started.Timestamp)

	res := m.ToResults(measurement.Result{SessionID: "s2", HeartRate: 74.04, SpO2: 98, BeatsDetected: 73}, measurement.Status{})
	assert.Equal(t, 74.0, res.HeartRate)
	assert.Equal(t, "success", res.Status)

	beat := m.ToBeat(measurement.Status{State: measurement.StateActive, LastBeat: 4210 * time.Millisecond, HasBeat: true})
	assert.Equal(t, "4210", beat.LastBeatTime)
	assert.True(t, beat.MeasurementActive)

	assert.Equal(t, "not_ready", m.ToResultsNotReady(measurement.Status{}).Status)
	assert.Equal(t, "/ws", m.ToHealth(measurement.Status{}, "/ws").WebsocketPath)
}
