package handler

import (
	"context"
	"encoding/json"

	"ppg-monitor-be/internal/mapper"
	"ppg-monitor-be/internal/pkg/logger"
	"ppg-monitor-be/internal/service"
	internalWS "ppg-monitor-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const StreamPath = "/ws"

type StreamHandler struct {
	service  service.IMeasurementService
	commands *CommandHandler
	hub      *internalWS.Hub
	mapper   *mapper.MeasurementMapper
	logger   logger.ILogger
}

func NewStreamHandler(svc service.IMeasurementService, commands *CommandHandler, hub *internalWS.Hub, m *mapper.MeasurementMapper, log logger.ILogger) *StreamHandler {
	return &StreamHandler{
		service:  svc,
		commands: commands,
		hub:      hub,
		mapper:   m,
		logger:   log,
	}
}

// ServeWs upgrades the request and serves the push channel.
func (h *StreamHandler) ServeWs(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			greeting, err := json.Marshal(h.mapper.ToConnected(h.service.Status()))
			if err != nil {
				h.logger.Error("StreamHandler", "Failed to marshal greeting", map[string]interface{}{"error": err.Error()})
				return
			}

			h.logger.Info("StreamHandler", "Starting WebSocket session", map[string]interface{}{"remote": conn.RemoteAddr().String()})
			internalWS.ServeWs(h.hub, conn, greeting, h.onMessage)
			h.logger.Info("StreamHandler", "WebSocket session ended", map[string]interface{}{"remote": conn.RemoteAddr().String()})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// onMessage runs on the client's read pump; replies go to that client only.
func (h *StreamHandler) onMessage(client *internalWS.Client, data []byte) {
	reply := h.commands.Handle(context.Background(), data)
	if reply == nil {
		return
	}

	out, err := json.Marshal(reply)
	if err != nil {
		h.logger.Error("StreamHandler", "Failed to marshal reply", map[string]interface{}{"error": err.Error()})
		return
	}
	h.hub.Send(client.ID, out)
}

func (h *StreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get(StreamPath, h.ServeWs)
}
