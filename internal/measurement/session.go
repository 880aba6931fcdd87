package measurement

import "time"

type State int

const (
	StateIdle State = iota
	StateActive
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Session is the single measurement aggregate. Only the Engine mutates it.
type Session struct {
	ID          string
	State       State
	StartedAt   time.Duration
	CompletedAt time.Duration

	InstantBPM    int
	FinalBPM      float64
	SpO2          int
	FingerPresent bool
}

// Busy reports whether the session holds the sensor.
func (s Session) Busy() bool {
	return s.State == StateActive
}

// Result is the outcome of a completed session.
type Result struct {
	SessionID     string
	HeartRate     float64
	SpO2          int
	BeatsDetected int
	StartedAt     time.Duration
	CompletedAt   time.Duration
}

// Status is an immutable snapshot of the engine, safe to share across
// goroutines.
type Status struct {
	SessionID     string
	State         State
	BeatsDetected int
	LastBeat      time.Duration
	HasBeat       bool
	InstantBPM    int
	FinalBPM      float64
	SpO2          int
	FingerPresent bool
	IR            float64
	Red           float64
	StartedAt     time.Duration
	Elapsed       time.Duration
	Duration      time.Duration
	Uptime        time.Duration
}

func (s Status) Busy() bool     { return s.State == StateActive }
func (s Status) Active() bool   { return s.State == StateActive }
func (s Status) Complete() bool { return s.State == StateComplete }

// Progress returns the completed fraction of the active session in percent.
func (s Status) Progress() int {
	if s.State != StateActive || s.Duration <= 0 {
		return 0
	}
	return int(s.Elapsed * 100 / s.Duration)
}

// Remaining returns the time left in the active session.
func (s Status) Remaining() time.Duration {
	if s.State != StateActive || s.Elapsed >= s.Duration {
		return 0
	}
	return s.Duration - s.Elapsed
}

// Result rebuilds the outcome of a completed session from the snapshot.
func (s Status) Result() (Result, bool) {
	if s.State != StateComplete {
		return Result{}, false
	}
	return Result{
		SessionID:     s.SessionID,
		HeartRate:     s.FinalBPM,
		SpO2:          s.SpO2,
		BeatsDetected: s.BeatsDetected,
		StartedAt:     s.StartedAt,
		CompletedAt:   s.StartedAt + s.Elapsed,
	}, true
}
