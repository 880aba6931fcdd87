// FILE: internal/dto/measurement_dto.go
package dto

// HTTP response bodies. Field names follow the sensor's original API.

type HealthResponse struct {
	Status            string `json:"status"`
	Timestamp         string `json:"timestamp"`
	Message           string `json:"message"`
	WebsocketPath     string `json:"websocket_path"`
	ServerBusy        bool   `json:"server_busy"`
	MeasurementActive bool   `json:"measurement_active"`
}

type BeatResponse struct {
	LastBeatTime      string `json:"lastBeatTime"`
	MeasurementActive bool   `json:"measurementActive"`
	BeatsDetected     int    `json:"beatsDetected"`
	ServerBusy        bool   `json:"server_busy"`
}

type ReadingsStartedResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
}

type ResultsResponse struct {
	Status        string  `json:"status"`
	HeartRate     float64 `json:"heartRate"`
	SpO2          int     `json:"spo2"`
	BeatsDetected int     `json:"beatsDetected"`
	Timestamp     string  `json:"timestamp"`
	ServerBusy    bool    `json:"server_busy"`
	SessionID     string  `json:"session_id"`
}

type ResultsNotReadyResponse struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	MeasurementActive bool   `json:"measurement_active"`
	ServerBusy        bool   `json:"server_busy"`
}

// MessageResponse is the plain {status, message} body used for acks and
// errors.
type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// FingerRequest lifts or places the simulated finger.
type FingerRequest struct {
	Present *bool `json:"present" validate:"required"`
}
