// FILE: internal/service/measurement_service.go
package service

import (
	"context"
	"time"

	"ppg-monitor-be/internal/measurement"
)

// commandTimeout bounds how long a transport waits for the loop to accept
// a command.
const commandTimeout = 2 * time.Second

// MeasurementLoop is the part of measurement.Loop the transports use.
type MeasurementLoop interface {
	Start(ctx context.Context) (measurement.Started, error)
	ClearResults(ctx context.Context) (bool, error)
	SetFingerPresent(ctx context.Context, present bool) error
	Status() measurement.Status
}

// ResultReader looks up completed results by session id.
type ResultReader interface {
	Get(sessionID string) (measurement.Result, bool)
}

type IMeasurementService interface {
	Status() measurement.Status
	Start(ctx context.Context) (measurement.Started, error)
	ClearResults(ctx context.Context) (bool, error)
	SetFingerPresent(ctx context.Context, present bool) error
	// Result returns the current completed session, if any.
	Result() (measurement.Result, bool)
	// ResultByID returns a recently completed session by id.
	ResultByID(sessionID string) (measurement.Result, bool)
	Duration() time.Duration
}

type measurementService struct {
	loop     MeasurementLoop
	results  ResultReader
	duration time.Duration
}

func NewMeasurementService(loop MeasurementLoop, results ResultReader, duration time.Duration) IMeasurementService {
	return &measurementService{
		loop:     loop,
		results:  results,
		duration: duration,
	}
}

func (s *measurementService) Status() measurement.Status {
	return s.loop.Status()
}

func (s *measurementService) Start(ctx context.Context) (measurement.Started, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return s.loop.Start(ctx)
}

func (s *measurementService) ClearResults(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return s.loop.ClearResults(ctx)
}

func (s *measurementService) SetFingerPresent(ctx context.Context, present bool) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return s.loop.SetFingerPresent(ctx, present)
}

func (s *measurementService) Result() (measurement.Result, bool) {
	return s.loop.Status().Result()
}

func (s *measurementService) ResultByID(sessionID string) (measurement.Result, bool) {
	if r, ok := s.Result(); ok && r.SessionID == sessionID {
		return r, true
	}
	if s.results == nil {
		return measurement.Result{}, false
	}
	return s.results.Get(sessionID)
}

func (s *measurementService) Duration() time.Duration {
	return s.duration
}
