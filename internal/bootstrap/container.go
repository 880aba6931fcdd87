package bootstrap

import (
	"context"
	"log"

	"ppg-monitor-be/internal/config"
	"ppg-monitor-be/internal/controller"
	"ppg-monitor-be/internal/handler"
	"ppg-monitor-be/internal/mapper"
	"ppg-monitor-be/internal/measurement"
	"ppg-monitor-be/internal/pkg/logger"
	"ppg-monitor-be/internal/repository/memory"
	"ppg-monitor-be/internal/sensor"
	"ppg-monitor-be/internal/service"
	"ppg-monitor-be/internal/websocket"
	"ppg-monitor-be/pkg/events"
	pktNats "ppg-monitor-be/pkg/nats"

	"github.com/redis/go-redis/v9"
)

type Container struct {
	Logger logger.ILogger

	// Controllers & Handlers
	MeasurementController controller.IMeasurementController
	StreamHandler         *handler.StreamHandler
	CommandHandler        *handler.CommandHandler

	// Background Services (Exposed for main.go to run)
	MeasurementLoop  *measurement.Loop
	TelemetryService service.ITelemetryService
	WebSocketHub     *websocket.Hub

	// Infrastructure, nil when not configured
	Sensor         sensor.Sensor
	Bus            *events.Bus
	NatsPublisher  *pktNats.Publisher
	NatsSubscriber *pktNats.Subscriber
	Redis          *redis.Client
}

// NewContainer wires the service. A sensor that fails to initialize is
// returned as an error; everything else degrades with a warning.
func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	s, err := sensor.New(cfg.Sensor, cfg.Simulator, sysLogger)
	if err != nil {
		return nil, err
	}

	// 2. Event Bus
	bus := events.NewBus()

	// 3. Infrastructure
	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.Messaging.NatsURL != "" {
		natsPub, err = pktNats.NewPublisher(cfg.Messaging.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.Messaging.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		}
	}

	var rdb *redis.Client
	if cfg.Messaging.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.Messaging.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.Messaging.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger)

	// 4. Services
	measurementMapper := mapper.NewMeasurementMapper()
	resultRepo := memory.NewResultRepository(cfg.Measurement.ResultTTL())

	var relay service.EventRelay
	if natsPub != nil {
		relay = natsPub
	}
	telemetryService := service.NewTelemetryService(bus, measurementMapper, wsHub, relay, sysLogger)

	engine := measurement.NewEngine(measurement.OptionsFromConfig(cfg.Measurement))
	loop := measurement.NewLoop(engine, s, telemetryService, resultRepo, sysLogger, measurement.LoopOptions{
		Interval:          cfg.Measurement.LoopInterval(),
		BroadcastInterval: cfg.Measurement.BroadcastInterval(),
	})

	measurementService := service.NewMeasurementService(loop, resultRepo, cfg.Measurement.Duration())

	// 5. Controllers & Handlers
	commandHandler := handler.NewCommandHandler(measurementService, measurementMapper, sysLogger)
	streamHandler := handler.NewStreamHandler(measurementService, commandHandler, wsHub, measurementMapper, wsLogger)

	return &Container{
		Logger:                sysLogger,
		MeasurementController: controller.NewMeasurementController(measurementService, measurementMapper, handler.StreamPath),
		StreamHandler:         streamHandler,
		CommandHandler:        commandHandler,
		MeasurementLoop:       loop,
		TelemetryService:      telemetryService,
		WebSocketHub:          wsHub,
		Sensor:                s,
		Bus:                   bus,
		NatsPublisher:         natsPub,
		NatsSubscriber:        natsSub,
		Redis:                 rdb,
	}, nil
}

// Start runs the background services until ctx is cancelled. The returned
// channel yields the loop's exit error.
func (c *Container) Start(ctx context.Context) (<-chan error, error) {
	go c.WebSocketHub.Run(ctx)

	if err := c.TelemetryService.Start(ctx); err != nil {
		return nil, err
	}

	if c.NatsSubscriber != nil {
		if err := c.NatsSubscriber.Subscribe(pktNats.CommandSubject, c.CommandHandler.ServeNats); err != nil {
			c.Logger.Warn("Container", "NATS command subscription failed", map[string]interface{}{"error": err.Error()})
		}
	}

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- c.MeasurementLoop.Run(ctx)
	}()
	return loopErr, nil
}

// Close releases infrastructure. Call it after the background services
// stopped.
func (c *Container) Close() {
	if c.NatsSubscriber != nil {
		c.NatsSubscriber.Close()
	}
	if c.NatsPublisher != nil {
		c.NatsPublisher.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Container", "Redis close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if err := c.Bus.Close(); err != nil {
		c.Logger.Warn("Container", "Event bus close failed", map[string]interface{}{"error": err.Error()})
	}
	if err := c.Sensor.Close(); err != nil {
		c.Logger.Warn("Container", "Sensor close failed", map[string]interface{}{"error": err.Error()})
	}
	_ = c.Logger.Sync()
}
