// Package sensor provides the optical front ends that feed the measurement
// loop with raw IR and Red absorption samples.
package sensor

import (
	"errors"
	"fmt"
	"time"

	"ppg-monitor-be/internal/config"
	"ppg-monitor-be/internal/pkg/logger"
)

var (
	// ErrUnknownDriver is returned by New for an unsupported SENSOR_DRIVER.
	ErrUnknownDriver = errors.New("sensor: unknown driver")
	// ErrNotDevice is returned when the part ID read over I2C does not match.
	ErrNotDevice = errors.New("sensor: part ID does not match")
	// ErrNoData is returned by Poll when no new sample is available yet.
	ErrNoData = errors.New("sensor: no new sample")
	// ErrUnsupported is returned for operations a driver cannot perform.
	ErrUnsupported = errors.New("sensor: operation not supported by driver")
)

// Sample is one IR/Red absorption pair in raw ADC counts.
type Sample struct {
	IR  float64
	Red float64
}

// Sensor is a PPG front end. Poll never blocks; it returns ErrNoData when
// the device has not produced a new pair since the last call.
type Sensor interface {
	Poll() (Sample, error)
	Close() error
}

// FingerController is implemented by sensors whose finger contact can be
// driven in software.
type FingerController interface {
	SetFingerPresent(present bool)
}

// New opens the driver named in cfg.Driver.
func New(cfg config.SensorConfig, sim config.SimulatorConfig, log logger.ILogger) (Sensor, error) {
	switch cfg.Driver {
	case "sim":
		log.Info("SENSOR", "Using simulated sensor", map[string]interface{}{
			"heart_rate": sim.HeartRate,
			"ratio":      sim.SpO2Ratio,
		})
		return NewSimulated(SimulatedOptions{
			HeartRate: sim.HeartRate,
			Ratio:     sim.SpO2Ratio,
			Noise:     sim.Noise,
		}, time.Now), nil
	case "max30105":
		s, err := NewMAX30105(cfg)
		if err != nil {
			return nil, fmt.Errorf("sensor: max30105: %w", err)
		}
		log.Info("SENSOR", "MAX30105 initialized", map[string]interface{}{"addr": cfg.I2CAddr})
		return s, nil
	case "max30102":
		s, err := NewMAX30102(cfg)
		if err != nil {
			return nil, fmt.Errorf("sensor: max30102: %w", err)
		}
		log.Info("SENSOR", "MAX30102 initialized", map[string]interface{}{"bus": cfg.I2CBus, "addr": cfg.I2CAddr})
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
