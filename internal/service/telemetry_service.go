// FILE: internal/service/telemetry_service.go
package service

import (
	"context"

	"ppg-monitor-be/internal/mapper"
	"ppg-monitor-be/internal/measurement"
	"ppg-monitor-be/internal/pkg/logger"
	"ppg-monitor-be/pkg/events"
)

// StreamDelivery pushes serialized events to push channel clients.
// Implemented by the WebSocket Hub.
type StreamDelivery interface {
	Broadcast(data []byte)
}

// EventRelay forwards serialized events to an external broker.
type EventRelay interface {
	Publish(eventType string, data []byte) error
}

type ITelemetryService interface {
	measurement.Sink
	// Start subscribes to the outbound topic and forwards until ctx is done.
	Start(ctx context.Context) error
}

type telemetryService struct {
	bus      *events.Bus
	mapper   *mapper.MeasurementMapper
	delivery StreamDelivery
	relay    EventRelay
	logger   logger.ILogger
}

// NewTelemetryService wires the loop's events to the push channel. relay
// may be nil when no broker is configured.
func NewTelemetryService(bus *events.Bus, m *mapper.MeasurementMapper, delivery StreamDelivery, relay EventRelay, log logger.ILogger) ITelemetryService {
	return &telemetryService{
		bus:      bus,
		mapper:   m,
		delivery: delivery,
		relay:    relay,
		logger:   log,
	}
}

// Emit runs on the loop goroutine.
func (s *telemetryService) Emit(ev measurement.Event) {
	out := s.mapper.ToStreamEvent(ev)
	if out == nil {
		return
	}
	if err := s.bus.Publish(events.TopicOutbound, out); err != nil {
		s.logger.Error("TelemetryService", "Failed to publish event", map[string]interface{}{
			"event": out.EventType(),
			"error": err.Error(),
		})
	}
}

func (s *telemetryService) Start(ctx context.Context) error {
	if err := s.bus.Subscribe(ctx, events.TopicOutbound, s.forward); err != nil {
		return err
	}
	s.logger.Info("TelemetryService", "Forwarding outbound events", map[string]interface{}{"topic": events.TopicOutbound})
	return nil
}

// forward never fails: a nack would make the bus redeliver stale telemetry.
func (s *telemetryService) forward(_ context.Context, eventType string, payload []byte) error {
	// the start ack is a direct reply to whoever asked
	if eventType != measurement.EventStarted {
		s.delivery.Broadcast(payload)
	}

	if s.relay != nil {
		if err := s.relay.Publish(eventType, payload); err != nil {
			s.logger.Warn("TelemetryService", "Relay publish failed", map[string]interface{}{
				"event": eventType,
				"error": err.Error(),
			})
		}
	}
	return nil
}
