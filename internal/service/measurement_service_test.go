package service

import (
	"context"
	"testing"
	"time"

	"ppg-monitor-be/internal/measurement"
	"ppg-monitor-be/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoop struct {
	status   measurement.Status
	startErr error
	deadline bool
	finger   *bool
}

func (f *fakeLoop) Start(ctx context.Context) (measurement.Started, error) {
	_, f.deadline = ctx.Deadline()
	if f.startErr != nil {
		return measurement.Started{}, f.startErr
	}
	f.status = measurement.Status{SessionID: "s1", State: measurement.StateActive}
	return measurement.Started{SessionID: "s1", At: time.Second}, nil
}

func (f *fakeLoop) ClearResults(context.Context) (bool, error) {
	if !f.status.Complete() {
		return false, nil
	}
	f.status = measurement.Status{}
	return true, nil
}

func (f *fakeLoop) SetFingerPresent(_ context.Context, present bool) error {
	f.finger = &present
	return nil
}

func (f *fakeLoop) Status() measurement.Status { return f.status }

func TestMeasurementServiceStart(t *testing.T) {
	loop := &fakeLoop{}
	svc := NewMeasurementService(loop, nil, time.Minute)

	started, err := svc.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s1", started.SessionID)
	assert.True(t, loop.deadline, "commands are bounded by a deadline")
	assert.True(t, svc.Status().Busy())

	loop.startErr = measurement.ErrMeasurementInProgress
	_, err = svc.Start(context.Background())
	assert.ErrorIs(t, err, measurement.ErrMeasurementInProgress)
	assert.Equal(t, time.Minute, svc.Duration())
}

func TestMeasurementServiceResults(t *testing.T) {
	loop := &fakeLoop{}
	repo := memory.NewResultRepository(time.Minute)
	svc := NewMeasurementService(loop, repo, time.Minute)

	_, ok := svc.Result()
	assert.False(t, ok)

	loop.status = measurement.Status{
		SessionID:     "s2",
		State:         measurement.StateComplete,
		FinalBPM:      71.5,
		SpO2:          97,
		BeatsDetected: 70,
	}
	res, ok := svc.Result()
	require.True(t, ok)
	assert.Equal(t, 71.5, res.HeartRate)

	byID, ok := svc.ResultByID("s2")
	require.True(t, ok)
	assert.Equal(t, res, byID)

	repo.Save(measurement.Result{SessionID: "s0", HeartRate: 64})
	older, ok := svc.ResultByID("s0")
	require.True(t, ok)
	assert.Equal(t, 64.0, older.HeartRate)

	_, ok = svc.ResultByID("unknown")
	assert.False(t, ok)

	cleared, err := svc.ClearResults(context.Background())
	require.NoError(t, err)
	assert.True(t, cleared)

	require.NoError(t, svc.SetFingerPresent(context.Background(), false))
	require.NotNil(t, loop.finger)
	assert.False(t, *loop.finger)
}
