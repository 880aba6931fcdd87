package sensor

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all"

	"ppg-monitor-be/internal/config"
)

const defaultEmbdBus = 1

// embdIO adapts an embd I2C bus to register access on one address.
type embdIO struct {
	bus  embd.I2CBus
	addr byte
}

func (e *embdIO) ReadReg(reg byte) (byte, error) {
	return e.bus.ReadByteFromReg(e.addr, reg)
}

func (e *embdIO) ReadRegs(reg byte, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := e.bus.ReadFromReg(e.addr, reg, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (e *embdIO) WriteReg(reg, value byte) error {
	return e.bus.WriteByteToReg(e.addr, reg, value)
}

func (e *embdIO) Close() error {
	return embd.CloseI2C()
}

// MAX30105 is the SparkFun particle sensor used by the bedside firmware.
type MAX30105 struct {
	*chip
}

// NewMAX30105 opens the I2C bus through embd host detection and configures
// the chip for red+IR acquisition. The bus defaults to 1 on a Raspberry Pi.
func NewMAX30105(cfg config.SensorConfig) (*MAX30105, error) {
	busNumber := defaultEmbdBus
	if cfg.I2CBus != "" {
		n, err := strconv.Atoi(cfg.I2CBus)
		if err != nil {
			return nil, fmt.Errorf("invalid I2C bus %q: %w", cfg.I2CBus, err)
		}
		busNumber = n
	}

	if err := embd.InitI2C(); err != nil {
		return nil, fmt.Errorf("could not initialize I2C: %w", err)
	}

	io := &embdIO{
		bus:  embd.NewI2CBus(byte(busNumber)),
		addr: byte(cfg.I2CAddr),
	}
	s, err := setupMAX30105(io, cfg)
	if err != nil {
		io.Close()
		return nil, err
	}
	return s, nil
}

func setupMAX30105(io regIO, cfg config.SensorConfig) (*MAX30105, error) {
	c, err := newChip(io)
	if err != nil {
		return nil, err
	}
	if err := c.reset(200 * time.Millisecond); err != nil {
		return nil, err
	}
	if err := c.configure(cfg); err != nil {
		return nil, err
	}
	// green and proximity LEDs stay dark in red+IR mode
	if err := c.io.WriteReg(regLED3PulseAmp, 0); err != nil {
		return nil, fmt.Errorf("could not configure green amplitude: %w", err)
	}
	if err := c.io.WriteReg(regLEDProxAmp, byte(cfg.LEDAmplitude)); err != nil {
		return nil, fmt.Errorf("could not configure proximity amplitude: %w", err)
	}
	if err := c.enableSlots(); err != nil {
		return nil, fmt.Errorf("could not enable slots: %w", err)
	}
	if err := c.clearFIFO(); err != nil {
		return nil, err
	}
	return &MAX30105{chip: c}, nil
}
