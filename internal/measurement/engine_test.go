package measurement

import (
	"fmt"
	"testing"
	"time"

	"ppg-monitor-be/internal/ppg"
	"ppg-monitor-be/internal/sensor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ms = time.Millisecond

var (
	finger   = sensor.Sample{IR: 50000, Red: 48000}
	noFinger = sensor.Sample{IR: 800, Red: 700}
)

func testOptions() Options {
	return Options{
		Duration:        10 * time.Second,
		MinBeatInterval: 250 * ms,
		MaxBeats:        250,
		BufferSize:      150,
		AmplitudeFloor:  50,
		FingerThreshold: 25000,
		FingerGrace:     2000 * ms,
		ValidBPM:        ppg.BPMRange{Min: 40, Max: 220},
	}
}

func newTestEngine() *Engine {
	e := NewEngine(testOptions())
	n := 0
	e.newID = func() string {
		n++
		return fmt.Sprintf("session-%d", n)
	}
	return e
}

func countEvents[T Event](events []Event) int {
	n := 0
	for _, ev := range events {
		if _, ok := ev.(T); ok {
			n++
		}
	}
	return n
}

// simulate steps the engine over a simulated pulse from `from` to `to`.
func simulate(t *testing.T, e *Engine, sim *sensor.Simulated, clock *time.Time, from, to time.Duration) []Event {
	t.Helper()
	var events []Event
	for now := from; now <= to; now += 10 * ms {
		*clock = time.Unix(0, 0).Add(now)
		s, err := sim.Poll()
		require.NoError(t, err)
		events = append(events, e.Step(now, s)...)
	}
	return events
}

func TestEngineStartsIdle(t *testing.T) {
	e := newTestEngine()

	assert.Equal(t, StateIdle, e.Session().State)
	assert.False(t, e.Session().Busy())
	assert.Nil(t, e.Step(1000*ms, finger))
}

func TestEngineRejectsStartWhileActive(t *testing.T) {
	e := newTestEngine()

	started, err := e.Start(1000 * ms)
	require.NoError(t, err)
	assert.Equal(t, "session-1", started.SessionID)
	assert.True(t, e.Session().Busy())

	clock := time.Unix(0, 0)
	sim := sensor.NewSimulated(sensor.SimulatedOptions{HeartRate: 72, Ratio: 0.52}, func() time.Time { return clock })
	simulate(t, e, sim, &clock, 1010*ms, 4000*ms)
	beats := e.Status(4000 * ms).BeatsDetected
	require.Greater(t, beats, 0)

	_, err = e.Start(4100 * ms)
	assert.ErrorIs(t, err, ErrMeasurementInProgress)

	session := e.Session()
	assert.Equal(t, "session-1", session.ID)
	assert.Equal(t, 1000*ms, session.StartedAt)
	assert.Equal(t, StateActive, session.State)
	assert.Equal(t, beats, e.Status(4100*ms).BeatsDetected)
}

func TestEngineFingerGrace(t *testing.T) {
	t.Run("absence within grace keeps the session", func(t *testing.T) {
		e := newTestEngine()
		_, err := e.Start(1000 * ms)
		require.NoError(t, err)

		e.Step(1010*ms, finger)
		events := e.Step(1100*ms, noFinger)
		assert.Equal(t, 1, countEvents[FingerLost](events))

		for now := 1200 * ms; now <= 3000*ms; now += 100 * ms {
			events = append(events, e.Step(now, noFinger)...)
		}
		assert.Zero(t, countEvents[FingerRemoved](events))
		assert.Equal(t, StateActive, e.Session().State)
		assert.False(t, e.Status(3000*ms).FingerPresent)

		events = e.Step(3050*ms, finger)
		assert.Equal(t, 1, countEvents[FingerReturned](events))
		assert.True(t, e.Session().FingerPresent)
	})

	t.Run("absence beyond grace cancels exactly once", func(t *testing.T) {
		e := newTestEngine()
		_, err := e.Start(1000 * ms)
		require.NoError(t, err)

		e.Step(1010*ms, finger)
		var events []Event
		for now := 1100 * ms; now <= 3000*ms; now += 100 * ms {
			events = append(events, e.Step(now, noFinger)...)
		}
		assert.Zero(t, countEvents[FingerRemoved](events))

		events = e.Step(3200*ms, noFinger)
		require.Equal(t, 1, countEvents[FingerRemoved](events))
		removed := events[0].(FingerRemoved)
		assert.Equal(t, "session-1", removed.SessionID)
		assert.Equal(t, 2100*ms, removed.Missing)

		assert.Equal(t, StateIdle, e.Session().State)
		assert.False(t, e.Session().Busy())

		assert.Empty(t, e.Step(3300*ms, noFinger))
		assert.Empty(t, e.Step(5000*ms, noFinger))
	})

	t.Run("absent samples are not analysed", func(t *testing.T) {
		e := newTestEngine()
		_, err := e.Start(1000 * ms)
		require.NoError(t, err)

		// alternating values would trigger the detector if they reached it
		for i, now := 0, 1010*ms; now < 2500*ms; i, now = i+1, now+10*ms {
			s := noFinger
			if i%2 == 0 {
				s.IR = 24000
			}
			e.Step(now, s)
		}
		assert.Zero(t, e.Status(2500*ms).BeatsDetected)
		assert.Zero(t, e.Session().SpO2)
	})
}

func TestEngineCompletesSession(t *testing.T) {
	e := newTestEngine()
	clock := time.Unix(0, 0)
	sim := sensor.NewSimulated(sensor.SimulatedOptions{HeartRate: 72, Ratio: 0.52, Noise: 20}, func() time.Time { return clock })

	_, err := e.Start(1000 * ms)
	require.NoError(t, err)

	events := simulate(t, e, sim, &clock, 1010*ms, 12000*ms)
	require.Equal(t, 1, countEvents[Completed](events))
	assert.Greater(t, countEvents[BeatDetected](events), 8)

	var completed Completed
	for _, ev := range events {
		if c, ok := ev.(Completed); ok {
			completed = c
		}
	}
	assert.Equal(t, "session-1", completed.Result.SessionID)
	assert.Equal(t, 11000*ms, completed.Result.CompletedAt)
	assert.InDelta(t, 72, completed.Result.HeartRate, 2)
	assert.InDelta(t, 97, completed.Result.SpO2, 2)

	session := e.Session()
	assert.Equal(t, StateComplete, session.State)
	assert.False(t, session.Busy())

	result, ok := e.Result()
	require.True(t, ok)
	assert.Equal(t, completed.Result, result)

	status := e.Status(12000 * ms)
	assert.True(t, status.Complete())
	assert.Equal(t, 10*time.Second, status.Elapsed)

	fromStatus, ok := status.Result()
	require.True(t, ok)
	assert.Equal(t, result, fromStatus)
	assert.Equal(t, StateComplete, completed.Status.State)
}

func TestEngineTickCompletesWithoutSamples(t *testing.T) {
	e := newTestEngine()
	_, err := e.Start(1000 * ms)
	require.NoError(t, err)

	assert.Empty(t, e.Tick(10999*ms))

	events := e.Tick(11000 * ms)
	require.Len(t, events, 1)
	completed := events[0].(Completed)
	assert.Zero(t, completed.Result.HeartRate, "no beats gives no heart rate")
	assert.Empty(t, e.Tick(11010*ms))
}

func TestEngineClearResultsIsIdempotent(t *testing.T) {
	e := newTestEngine()

	assert.False(t, e.ClearResults())
	assert.Equal(t, StateIdle, e.Session().State)

	_, err := e.Start(1000 * ms)
	require.NoError(t, err)
	assert.False(t, e.ClearResults(), "clearing an active session is a no-op")
	assert.Equal(t, StateActive, e.Session().State)

	e.Tick(11000 * ms)
	require.Equal(t, StateComplete, e.Session().State)

	assert.True(t, e.ClearResults())
	assert.Equal(t, StateIdle, e.Session().State)
	_, ok := e.Result()
	assert.False(t, ok)

	assert.False(t, e.ClearResults())
}

func TestEngineRestartsFromComplete(t *testing.T) {
	e := newTestEngine()
	_, err := e.Start(1000 * ms)
	require.NoError(t, err)
	e.Tick(11000 * ms)

	started, err := e.Start(12000 * ms)
	require.NoError(t, err)
	assert.Equal(t, "session-2", started.SessionID)
	assert.Equal(t, StateActive, e.Session().State)
	assert.Zero(t, e.Status(12000*ms).BeatsDetected)
}
