package measurement

import "time"

const (
	EventStarted        = "measurement_started"
	EventBeatDetected   = "beat_detected"
	EventComplete       = "measurement_complete"
	EventFingerRemoved  = "finger_removed"
	EventFingerLost     = "finger_lost"
	EventFingerReturned = "finger_returned"
	EventSensorData     = "sensor_data"
)

// Event is something the loop reports to transports.
type Event interface {
	EventName() string
}

type Started struct {
	SessionID string
	At        time.Duration
}

type BeatDetected struct {
	SessionID string
	At        time.Duration
	Count     int
	BPM       int
}

// Completed is emitted once, on the tick a session reaches its duration.
// Status is the snapshot taken at completion.
type Completed struct {
	Result Result
	Status Status
}

// FingerRemoved is emitted once when an absence outlasts the grace period
// and the session is cancelled.
type FingerRemoved struct {
	SessionID string
	At        time.Duration
	Missing   time.Duration
}

// FingerLost and FingerReturned mark the edges of a tolerated absence.
type FingerLost struct {
	SessionID string
	At        time.Duration
}

type FingerReturned struct {
	SessionID string
	At        time.Duration
}

// Telemetry is the periodic sample broadcast while a session is active or
// complete.
type Telemetry struct {
	Status Status
}

func (Started) EventName() string        { return EventStarted }
func (BeatDetected) EventName() string   { return EventBeatDetected }
func (Completed) EventName() string      { return EventComplete }
func (FingerRemoved) EventName() string  { return EventFingerRemoved }
func (FingerLost) EventName() string     { return EventFingerLost }
func (FingerReturned) EventName() string { return EventFingerReturned }

func (t Telemetry) EventName() string {
	if t.Status.Complete() {
		return EventComplete
	}
	return EventSensorData
}
