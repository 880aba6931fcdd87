package mapper

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"ppg-monitor-be/internal/dto"
	"ppg-monitor-be/internal/measurement"
	"ppg-monitor-be/pkg/events"
)

const (
	MessageConnected     = "Connected to PPG Heart Rate Monitor"
	MessageBusy          = "Server is busy with another measurement"
	MessageInProgress    = "Measurement in progress. Please wait."
	MessageNotReady      = "No completed measurement available"
	MessageCleared       = "Measurement results cleared"
	MessageFingerRemoved = "Finger removed from sensor. Measurement canceled."
	MessageRunning       = "PPG Sensor is running"
)

type MeasurementMapper struct{}

func NewMeasurementMapper() *MeasurementMapper {
	return &MeasurementMapper{}
}

// FormatUptime renders a monotonic offset as whole milliseconds, the
// service's only notion of a timestamp.
func FormatUptime(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// ToStreamEvent maps a loop event to its push channel message. Events that
// are only logged map to nil.
func (m *MeasurementMapper) ToStreamEvent(ev measurement.Event) events.Event {
	switch e := ev.(type) {
	case measurement.Started:
		return m.ToStarted(e)
	case measurement.BeatDetected:
		return dto.BeatDetectedEvent{
			Event:      e.EventName(),
			BeatTime:   FormatUptime(e.At),
			BeatCount:  e.Count,
			CurrentBPM: e.BPM,
			SessionID:  e.SessionID,
		}
	case measurement.Completed:
		return m.ToSensorData(e.Status)
	case measurement.FingerRemoved:
		return dto.FingerRemovedEvent{
			Event:     e.EventName(),
			Message:   MessageFingerRemoved,
			Timestamp: FormatUptime(e.At),
			SessionID: e.SessionID,
		}
	case measurement.Telemetry:
		return m.ToSensorData(e.Status)
	}
	return nil
}

func (m *MeasurementMapper) ToSensorData(st measurement.Status) dto.SensorDataEvent {
	out := dto.SensorDataEvent{
		Event:             measurement.Telemetry{Status: st}.EventName(),
		Timestamp:         FormatUptime(st.Uptime),
		HeartRate:         st.InstantBPM,
		SpO2:              st.SpO2,
		MeasurementActive: st.Active(),
		BeatsDetected:     st.BeatsDetected,
		ServerBusy:        st.Busy(),
		IRValue:           int64(st.IR),
		RedValue:          int64(st.Red),
		FingerPresent:     st.FingerPresent,
		SessionID:         st.SessionID,
	}
	if st.Complete() {
		final := roundTenth(st.FinalBPM)
		out.FinalHeartRate = &final
	}
	return out
}

func (m *MeasurementMapper) ToStarted(s measurement.Started) dto.MeasurementStartedEvent {
	return dto.MeasurementStartedEvent{
		Event:     s.EventName(),
		Timestamp: FormatUptime(s.At),
		SessionID: s.SessionID,
	}
}

func (m *MeasurementMapper) ToConnected(st measurement.Status) dto.ConnectedEvent {
	return dto.ConnectedEvent{
		Event:               "connected",
		Status:              "ok",
		Message:             MessageConnected,
		ServerBusy:          st.Busy(),
		MeasurementActive:   st.Active(),
		MeasurementComplete: st.Complete(),
	}
}

func (m *MeasurementMapper) ToPong(st measurement.Status) dto.PongEvent {
	return dto.PongEvent{
		Event:             "pong",
		Timestamp:         FormatUptime(st.Uptime),
		ServerBusy:        st.Busy(),
		MeasurementActive: st.Active(),
	}
}

func (m *MeasurementMapper) ToStatus(st measurement.Status) dto.StatusEvent {
	return dto.StatusEvent{
		Event:               "status",
		Timestamp:           FormatUptime(st.Uptime),
		ServerBusy:          st.Busy(),
		MeasurementActive:   st.Active(),
		MeasurementComplete: st.Complete(),
		BeatsDetected:       st.BeatsDetected,
	}
}

func (m *MeasurementMapper) ToError(message string, st measurement.Status) dto.ErrorEvent {
	return dto.ErrorEvent{
		Event:     "error",
		Message:   message,
		Timestamp: FormatUptime(st.Uptime),
	}
}

func (m *MeasurementMapper) ToHealth(st measurement.Status, wsPath string) dto.HealthResponse {
	return dto.HealthResponse{
		Status:            "UP",
		Timestamp:         FormatUptime(st.Uptime),
		Message:           MessageRunning,
		WebsocketPath:     wsPath,
		ServerBusy:        st.Busy(),
		MeasurementActive: st.Active(),
	}
}

func (m *MeasurementMapper) ToBeat(st measurement.Status) dto.BeatResponse {
	return dto.BeatResponse{
		LastBeatTime:      FormatUptime(st.LastBeat),
		MeasurementActive: st.Active(),
		BeatsDetected:     st.BeatsDetected,
		ServerBusy:        st.Busy(),
	}
}

func (m *MeasurementMapper) ToReadingsStarted(s measurement.Started, duration time.Duration) dto.ReadingsStartedResponse {
	return dto.ReadingsStartedResponse{
		Status:    "started",
		Message:   fmt.Sprintf("%d-second measurement started. Check /beat for progress.", int(duration.Seconds())),
		Timestamp: FormatUptime(s.At),
		SessionID: s.SessionID,
	}
}

func (m *MeasurementMapper) ToResults(r measurement.Result, st measurement.Status) dto.ResultsResponse {
	return dto.ResultsResponse{
		Status:        "success",
		HeartRate:     roundTenth(r.HeartRate),
		SpO2:          r.SpO2,
		BeatsDetected: r.BeatsDetected,
		Timestamp:     FormatUptime(st.Uptime),
		ServerBusy:    st.Busy(),
		SessionID:     r.SessionID,
	}
}

func (m *MeasurementMapper) ToResultsNotReady(st measurement.Status) dto.ResultsNotReadyResponse {
	return dto.ResultsNotReadyResponse{
		Status:            "not_ready",
		Message:           MessageNotReady,
		MeasurementActive: st.Active(),
		ServerBusy:        st.Busy(),
	}
}
