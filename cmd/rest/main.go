package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ppg-monitor-be/internal/bootstrap"
	"ppg-monitor-be/internal/config"
	"ppg-monitor-be/internal/server"
	"ppg-monitor-be/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] Invalid configuration: %v", err)
	}

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.Telemetry)
	defer shutdownTracer(context.Background())

	// 3. Bootstrap Dependencies (Container). The sensor is opened here and
	// a failure is not retried.
	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Fatalf("[FATAL] Sensor initialization failed: %v", err)
	}
	defer container.Close()

	// 4. Start Background Services
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loopErr, err := container.Start(ctx)
	if err != nil {
		log.Fatalf("[FATAL] Failed to start background services: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Run()
	}()

	// 6. Wait for shutdown
	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err := <-serverErr:
		log.Printf("[ERROR] Server stopped: %v", err)
		stop()
	case err := <-loopErr:
		log.Printf("[ERROR] Measurement loop stopped: %v", err)
		stop()
	}

	if err := srv.Shutdown(); err != nil {
		log.Printf("[WARN] Server shutdown: %v", err)
	}

	select {
	case err := <-loopErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[WARN] Measurement loop: %v", err)
		}
	case <-time.After(2 * time.Second):
		log.Println("[WARN] Measurement loop did not stop in time")
	}
}
