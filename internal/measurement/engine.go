// Package measurement runs the measurement lifecycle: it feeds sensor samples
// through the signal pipeline and moves the session between idle, active and
// complete.
package measurement

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"ppg-monitor-be/internal/config"
	"ppg-monitor-be/internal/ppg"
	"ppg-monitor-be/internal/sensor"
)

var (
	// ErrMeasurementInProgress rejects a start while a session is active.
	ErrMeasurementInProgress = errors.New("measurement: measurement in progress")
	// ErrLoopStopped is returned by loop commands once Run has returned.
	ErrLoopStopped = errors.New("measurement: loop stopped")
)

type Options struct {
	Duration        time.Duration
	MinBeatInterval time.Duration
	MaxBeats        int
	BufferSize      int
	AmplitudeFloor  float64
	FingerThreshold float64
	FingerGrace     time.Duration
	ValidBPM        ppg.BPMRange
}

func OptionsFromConfig(cfg config.MeasurementConfig) Options {
	return Options{
		Duration:        cfg.Duration(),
		MinBeatInterval: cfg.MinBeatInterval(),
		MaxBeats:        cfg.MaxBeats,
		BufferSize:      cfg.BufferSize,
		AmplitudeFloor:  cfg.BeatAmplitudeFloor,
		FingerThreshold: cfg.FingerPresenceThreshold,
		FingerGrace:     cfg.FingerGrace(),
		ValidBPM:        ppg.BPMRange{Min: cfg.MinValidBPM, Max: cfg.MaxValidBPM},
	}
}

// Engine owns the session and the signal pipeline. It is not safe for
// concurrent use; the Loop serializes all access.
type Engine struct {
	opts  Options
	newID func() string

	window   *ppg.SampleWindow
	timeline *ppg.Timeline
	detector *ppg.BeatDetector
	spo2     *ppg.SpO2Estimator
	presence *ppg.PresenceMonitor

	session Session
	last    sensor.Sample
}

func NewEngine(opts Options) *Engine {
	timeline := ppg.NewTimeline(opts.MaxBeats)
	return &Engine{
		opts:     opts,
		newID:    uuid.NewString,
		window:   ppg.NewSampleWindow(opts.BufferSize),
		timeline: timeline,
		detector: ppg.NewBeatDetector(opts.MinBeatInterval, opts.AmplitudeFloor, timeline),
		spo2:     ppg.NewSpO2Estimator(),
		presence: ppg.NewPresenceMonitor(opts.FingerThreshold, opts.FingerGrace),
		session:  Session{State: StateIdle},
	}
}

// Start begins a new session at now. It is rejected while another session
// is active; a completed session is discarded.
func (e *Engine) Start(now time.Duration) (Started, error) {
	if e.session.Busy() {
		return Started{}, ErrMeasurementInProgress
	}

	e.resetPipeline()
	e.session = Session{
		ID:            e.newID(),
		State:         StateActive,
		StartedAt:     now,
		FingerPresent: e.presence.Present(e.last.IR),
	}
	return Started{SessionID: e.session.ID, At: now}, nil
}

// Step feeds one sample taken at now and returns the resulting events. Samples
// outside an active session only update the reported raw values.
func (e *Engine) Step(now time.Duration, s sensor.Sample) []Event {
	e.last = s
	if e.session.State != StateActive {
		return nil
	}

	var events []Event
	p := e.presence.Observe(s.IR, now)
	e.session.FingerPresent = p.Present

	switch {
	case p.Expired:
		removed := FingerRemoved{SessionID: e.session.ID, At: now, Missing: p.Missing}
		e.cancel()
		return append(events, removed)
	case p.Removed:
		events = append(events, FingerLost{SessionID: e.session.ID, At: now})
	case p.Returned:
		events = append(events, FingerReturned{SessionID: e.session.ID, At: now})
	}

	if p.Present {
		_, ac := e.window.Update(s.IR)
		if at, ok := e.detector.Process(ac, now); ok {
			e.session.InstantBPM = ppg.InstantBPM(e.timeline.Beats(), e.opts.ValidBPM)
			events = append(events, BeatDetected{
				SessionID: e.session.ID,
				At:        at,
				Count:     e.timeline.Len(),
				BPM:       e.session.InstantBPM,
			})
		}

		// red below the threshold means the pair is not a through-finger reading
		if e.presence.Present(s.Red) {
			if v, ok := e.spo2.Update(s.Red, s.IR); ok {
				e.session.SpO2 = v
			}
		}
	}

	return append(events, e.Tick(now)...)
}

// Tick completes the active session once its duration has elapsed. It runs
// even when no sample was available.
func (e *Engine) Tick(now time.Duration) []Event {
	if e.session.State != StateActive || now-e.session.StartedAt < e.opts.Duration {
		return nil
	}

	e.session.FinalBPM = ppg.FinalBPM(e.timeline.Beats(), e.opts.ValidBPM)
	e.session.State = StateComplete
	e.session.CompletedAt = now

	result, _ := e.Result()
	return []Event{Completed{Result: result, Status: e.Status(now)}}
}

// ClearResults discards a completed session. Any other state is left alone.
// It reports whether a result was cleared.
func (e *Engine) ClearResults() bool {
	if e.session.State != StateComplete {
		return false
	}
	e.resetPipeline()
	e.session = Session{State: StateIdle}
	return true
}

// Result returns the outcome of the completed session.
func (e *Engine) Result() (Result, bool) {
	if e.session.State != StateComplete {
		return Result{}, false
	}
	return Result{
		SessionID:     e.session.ID,
		HeartRate:     e.session.FinalBPM,
		SpO2:          e.session.SpO2,
		BeatsDetected: e.timeline.Len(),
		StartedAt:     e.session.StartedAt,
		CompletedAt:   e.session.CompletedAt,
	}, true
}

func (e *Engine) Session() Session {
	return e.session
}

func (e *Engine) Status(now time.Duration) Status {
	st := Status{
		SessionID:     e.session.ID,
		State:         e.session.State,
		BeatsDetected: e.timeline.Len(),
		InstantBPM:    e.session.InstantBPM,
		FinalBPM:      e.session.FinalBPM,
		SpO2:          e.session.SpO2,
		FingerPresent: e.presence.Present(e.last.IR),
		IR:            e.last.IR,
		Red:           e.last.Red,
		StartedAt:     e.session.StartedAt,
		Duration:      e.opts.Duration,
		Uptime:        now,
	}
	st.LastBeat, st.HasBeat = e.timeline.Last()

	switch e.session.State {
	case StateActive:
		st.Elapsed = now - e.session.StartedAt
	case StateComplete:
		st.Elapsed = e.session.CompletedAt - e.session.StartedAt
	}
	return st
}

// cancel aborts the active session after finger loss.
func (e *Engine) cancel() {
	e.resetPipeline()
	e.session = Session{State: StateIdle}
}

// resetPipeline clears per-session signal state. The beat detector keeps
// its refractory reference across sessions.
func (e *Engine) resetPipeline() {
	e.window.Reset()
	e.timeline.Reset()
	e.detector.Reset()
	e.spo2.Reset()
	e.presence.Reset()
}
