package measurement

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"ppg-monitor-be/internal/pkg/logger"
	"ppg-monitor-be/internal/sensor"
)

const progressLogInterval = 5 * time.Second

// Sink receives every event the loop produces, in order, on the loop
// goroutine. Implementations must not block for long.
type Sink interface {
	Emit(ev Event)
}

// ResultStore keeps completed results addressable by session id.
type ResultStore interface {
	Save(r Result)
}

type SinkFunc func(ev Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

type LoopOptions struct {
	Interval          time.Duration
	BroadcastInterval time.Duration
	// Clock defaults to time.Now. Timestamps are offsets from the first
	// reading of the clock.
	Clock func() time.Time
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdClear
	cmdFinger
)

type command struct {
	kind    commandKind
	present bool
	reply   chan commandResult
}

type commandResult struct {
	started Started
	cleared bool
	err     error
}

// Loop is the single goroutine that owns the Engine and the sensor. Other
// goroutines talk to it through commands and read its published Status.
type Loop struct {
	engine  *Engine
	sensor  sensor.Sensor
	sink    Sink
	results ResultStore
	logger  logger.ILogger
	opts    LoopOptions

	start    time.Time
	commands chan command
	done     chan struct{}
	status   atomic.Pointer[Status]

	lastBroadcast time.Duration
	lastProgress  time.Duration
	pollFailing   bool
}

func NewLoop(engine *Engine, s sensor.Sensor, sink Sink, results ResultStore, log logger.ILogger, opts LoopOptions) *Loop {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}

	l := &Loop{
		engine:   engine,
		sensor:   s,
		sink:     sink,
		results:  results,
		logger:   log,
		opts:     opts,
		start:    opts.Clock(),
		commands: make(chan command),
		done:     make(chan struct{}),
	}
	l.publishStatus(0)
	return l
}

// Run drives the loop until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	ticker := time.NewTicker(l.opts.Interval)
	defer ticker.Stop()

	l.logger.Info("MEASUREMENT", "Measurement loop started", map[string]interface{}{
		"interval_ms":           l.opts.Interval.Milliseconds(),
		"broadcast_interval_ms": l.opts.BroadcastInterval.Milliseconds(),
	})

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("MEASUREMENT", "Measurement loop stopped", nil)
			return ctx.Err()
		case cmd := <-l.commands:
			cmd.reply <- l.apply(cmd)
		case <-ticker.C:
			l.step()
		}
	}
}

// Start asks the loop to begin a new session.
func (l *Loop) Start(ctx context.Context) (Started, error) {
	res, err := l.send(ctx, command{kind: cmdStart})
	if err != nil {
		return Started{}, err
	}
	return res.started, res.err
}

// ClearResults asks the loop to discard a completed session. It never fails
// while the loop is running.
func (l *Loop) ClearResults(ctx context.Context) (bool, error) {
	res, err := l.send(ctx, command{kind: cmdClear})
	if err != nil {
		return false, err
	}
	return res.cleared, nil
}

// SetFingerPresent drives the finger contact of a simulated sensor.
func (l *Loop) SetFingerPresent(ctx context.Context, present bool) error {
	res, err := l.send(ctx, command{kind: cmdFinger, present: present})
	if err != nil {
		return err
	}
	return res.err
}

// Status returns the last published snapshot without touching the engine.
func (l *Loop) Status() Status {
	return *l.status.Load()
}

func (l *Loop) send(ctx context.Context, cmd command) (commandResult, error) {
	cmd.reply = make(chan commandResult, 1)

	select {
	case l.commands <- cmd:
	case <-l.done:
		return commandResult{}, ErrLoopStopped
	case <-ctx.Done():
		return commandResult{}, ctx.Err()
	}

	select {
	case res := <-cmd.reply:
		return res, nil
	case <-ctx.Done():
		return commandResult{}, ctx.Err()
	}
}

func (l *Loop) now() time.Duration {
	return l.opts.Clock().Sub(l.start)
}

func (l *Loop) apply(cmd command) commandResult {
	now := l.now()
	defer l.publishStatus(now)

	switch cmd.kind {
	case cmdStart:
		started, err := l.engine.Start(now)
		if err != nil {
			l.logger.Warn("MEASUREMENT", "Start rejected", map[string]interface{}{"error": err.Error()})
			return commandResult{err: err}
		}
		l.lastProgress = now
		l.logger.Info("MEASUREMENT", "Measurement started", map[string]interface{}{
			"session_id":  started.SessionID,
			"duration_ms": l.engine.opts.Duration.Milliseconds(),
		})
		l.sink.Emit(started)
		return commandResult{started: started}

	case cmdClear:
		cleared := l.engine.ClearResults()
		if cleared {
			l.logger.Info("MEASUREMENT", "Results cleared", nil)
		}
		return commandResult{cleared: cleared}

	case cmdFinger:
		fc, ok := l.sensor.(sensor.FingerController)
		if !ok {
			return commandResult{err: sensor.ErrUnsupported}
		}
		fc.SetFingerPresent(cmd.present)
		l.logger.Debug("MEASUREMENT", "Simulated finger toggled", map[string]interface{}{"present": cmd.present})
		return commandResult{}
	}

	return commandResult{}
}

// step runs one iteration: poll, process, emit, broadcast, publish.
func (l *Loop) step() {
	now := l.now()

	var events []Event
	sample, err := l.sensor.Poll()
	switch {
	case err == nil:
		l.pollFailing = false
		events = l.engine.Step(now, sample)
	case errors.Is(err, sensor.ErrNoData):
		events = l.engine.Tick(now)
	default:
		if !l.pollFailing {
			l.logger.Warn("MEASUREMENT", "Sensor poll failed", map[string]interface{}{"error": err.Error()})
		}
		l.pollFailing = true
		events = l.engine.Tick(now)
	}

	for _, ev := range events {
		l.handle(ev)
	}

	status := l.engine.Status(now)
	l.logProgress(now, status)

	if (status.Active() || status.Complete()) && now-l.lastBroadcast >= l.opts.BroadcastInterval {
		l.lastBroadcast = now
		l.sink.Emit(Telemetry{Status: status})
	}

	l.status.Store(&status)
}

func (l *Loop) handle(ev Event) {
	switch e := ev.(type) {
	case BeatDetected:
		l.logger.Debug("MEASUREMENT", "Beat detected", map[string]interface{}{
			"beat_count":  e.Count,
			"current_bpm": e.BPM,
		})
	case Completed:
		l.logger.Info("MEASUREMENT", "Measurement complete", map[string]interface{}{
			"session_id":     e.Result.SessionID,
			"final_bpm":      e.Result.HeartRate,
			"spo2":           e.Result.SpO2,
			"beats_detected": e.Result.BeatsDetected,
		})
		if e.Result.BeatsDetected < 3 {
			l.logger.Warn("MEASUREMENT", "Not enough beats detected for a heart rate", nil)
		}
		if l.results != nil {
			l.results.Save(e.Result)
		}
		// the completion push counts as this cadence's broadcast
		l.lastBroadcast = e.Status.Uptime
	case FingerLost:
		l.logger.Info("MEASUREMENT", "Finger removed, waiting for grace period", map[string]interface{}{"session_id": e.SessionID})
	case FingerReturned:
		l.logger.Info("MEASUREMENT", "Finger detected again", map[string]interface{}{"session_id": e.SessionID})
	case FingerRemoved:
		l.logger.Warn("MEASUREMENT", "Measurement cancelled, no finger detected", map[string]interface{}{
			"session_id": e.SessionID,
			"missing_ms": e.Missing.Milliseconds(),
		})
	}

	l.sink.Emit(ev)
}

func (l *Loop) logProgress(now time.Duration, status Status) {
	if !status.Active() || now-l.lastProgress < progressLogInterval {
		return
	}
	l.lastProgress = now
	l.logger.Info("MEASUREMENT", "Progress", map[string]interface{}{
		"percent":           status.Progress(),
		"seconds_remaining": int(status.Remaining().Seconds()),
		"beats_detected":    status.BeatsDetected,
		"current_bpm":       status.InstantBPM,
		"spo2":              status.SpO2,
	})
}

func (l *Loop) publishStatus(now time.Duration) {
	status := l.engine.Status(now)
	l.status.Store(&status)
}
