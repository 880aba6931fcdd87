package handler

import (
	"context"
	"encoding/json"
	"errors"

	"ppg-monitor-be/internal/dto"
	"ppg-monitor-be/internal/mapper"
	"ppg-monitor-be/internal/measurement"
	"ppg-monitor-be/internal/pkg/logger"
	"ppg-monitor-be/internal/pkg/serverutils"
	"ppg-monitor-be/internal/service"
	"ppg-monitor-be/pkg/events"
)

// CommandHandler answers push channel commands. The same JSON is accepted
// over the WebSocket and on the NATS command subject.
type CommandHandler struct {
	service service.IMeasurementService
	mapper  *mapper.MeasurementMapper
	logger  logger.ILogger
}

func NewCommandHandler(svc service.IMeasurementService, m *mapper.MeasurementMapper, log logger.ILogger) *CommandHandler {
	return &CommandHandler{
		service: svc,
		mapper:  m,
		logger:  log,
	}
}

// Handle returns the reply to one raw command, or nil when the command is
// malformed or unknown.
func (h *CommandHandler) Handle(ctx context.Context, data []byte) events.Event {
	var req dto.CommandRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.logger.Debug("CommandHandler", "Ignoring malformed command", map[string]interface{}{"error": err.Error()})
		return nil
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		h.logger.Debug("CommandHandler", "Ignoring unknown command", map[string]interface{}{"command": req.Command})
		return nil
	}

	switch req.Command {
	case dto.CommandPing:
		return h.mapper.ToPong(h.service.Status())

	case dto.CommandStartMeasurement:
		started, err := h.service.Start(ctx)
		if err != nil {
			if !errors.Is(err, measurement.ErrMeasurementInProgress) {
				h.logger.Error("CommandHandler", "Start failed", map[string]interface{}{"error": err.Error()})
			}
			return h.mapper.ToError(mapper.MessageBusy, h.service.Status())
		}
		return h.mapper.ToStarted(started)

	case dto.CommandCheckStatus:
		return h.mapper.ToStatus(h.service.Status())
	}
	return nil
}

// ServeNats adapts Handle to the NATS request handler.
func (h *CommandHandler) ServeNats(ctx context.Context, data []byte) []byte {
	reply := h.Handle(ctx, data)
	if reply == nil {
		return nil
	}
	out, err := json.Marshal(reply)
	if err != nil {
		h.logger.Error("CommandHandler", "Failed to marshal reply", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return out
}
