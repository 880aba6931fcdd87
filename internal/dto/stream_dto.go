// FILE: internal/dto/stream_dto.go
package dto

// Push channel messages. Every message carries its name in "event".

const (
	CommandPing             = "ping"
	CommandStartMeasurement = "start_measurement"
	CommandCheckStatus      = "check_status"
)

// CommandRequest is an inbound push channel (or NATS) command.
type CommandRequest struct {
	Command string `json:"command" validate:"required,oneof=ping start_measurement check_status"`
}

type ConnectedEvent struct {
	Event               string `json:"event"`
	Status              string `json:"status"`
	Message             string `json:"message"`
	ServerBusy          bool   `json:"server_busy"`
	MeasurementActive   bool   `json:"measurement_active"`
	MeasurementComplete bool   `json:"measurement_complete"`
}

type PongEvent struct {
	Event             string `json:"event"`
	Timestamp         string `json:"timestamp"`
	ServerBusy        bool   `json:"server_busy"`
	MeasurementActive bool   `json:"measurement_active"`
}

type MeasurementStartedEvent struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
}

type ErrorEvent struct {
	Event     string `json:"event"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type StatusEvent struct {
	Event               string `json:"event"`
	Timestamp           string `json:"timestamp"`
	ServerBusy          bool   `json:"server_busy"`
	MeasurementActive   bool   `json:"measurement_active"`
	MeasurementComplete bool   `json:"measurement_complete"`
	BeatsDetected       int    `json:"beats_detected"`
}

// SensorDataEvent is the periodic broadcast. Its event is
// "measurement_complete" once the session finished, and FinalHeartRate is
// only set then.
type SensorDataEvent struct {
	Event             string   `json:"event"`
	Timestamp         string   `json:"timestamp"`
	HeartRate         int      `json:"heart_rate"`
	SpO2              int      `json:"spo2"`
	MeasurementActive bool     `json:"measurement_active"`
	BeatsDetected     int      `json:"beats_detected"`
	ServerBusy        bool     `json:"server_busy"`
	FinalHeartRate    *float64 `json:"final_heart_rate,omitempty"`
	IRValue           int64    `json:"ir_value"`
	RedValue          int64    `json:"red_value"`
	FingerPresent     bool     `json:"finger_present"`
	SessionID         string   `json:"session_id,omitempty"`
}

type BeatDetectedEvent struct {
	Event      string `json:"event"`
	BeatTime   string `json:"beat_time"`
	BeatCount  int    `json:"beat_count"`
	CurrentBPM int    `json:"current_bpm"`
	SessionID  string `json:"session_id"`
}

type FingerRemovedEvent struct {
	Event     string `json:"event"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
}

func (e ConnectedEvent) EventType() string          { return e.Event }
func (e PongEvent) EventType() string               { return e.Event }
func (e MeasurementStartedEvent) EventType() string { return e.Event }
func (e ErrorEvent) EventType() string              { return e.Event }
func (e StatusEvent) EventType() string             { return e.Event }
func (e SensorDataEvent) EventType() string         { return e.Event }
func (e BeatDetectedEvent) EventType() string       { return e.Event }
func (e FingerRemovedEvent) EventType() string      { return e.Event }
