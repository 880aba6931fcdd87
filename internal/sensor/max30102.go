package sensor

import (
	"fmt"
	"time"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"

	"ppg-monitor-be/internal/config"
)

// periphIO adapts a periph I2C device to register access.
type periphIO struct {
	dev *i2c.Dev
	bus i2c.BusCloser
}

func (p *periphIO) ReadReg(reg byte) (byte, error) {
	b := make([]byte, 1)
	if err := p.dev.Tx([]byte{reg}, b); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (p *periphIO) ReadRegs(reg byte, n int) ([]byte, error) {
	b := make([]byte, n)
	if err := p.dev.Tx([]byte{reg}, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (p *periphIO) WriteReg(reg, value byte) error {
	_, err := p.dev.Write([]byte{reg, value})
	return err
}

func (p *periphIO) Close() error {
	return p.bus.Close()
}

// MAX30102 is the common pulse-oximetry breakout.
type MAX30102 struct {
	*chip
}

// NewMAX30102 opens cfg.I2CBus through periph ("" picks the first available
// bus) and configures the chip for red+IR acquisition.
func NewMAX30102(cfg config.SensorConfig) (*MAX30102, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("could not initialize host: %w", err)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("could not open I2C bus: %w", err)
	}

	io := &periphIO{
		dev: &i2c.Dev{Addr: uint16(cfg.I2CAddr), Bus: bus},
		bus: bus,
	}
	s, err := setupMAX30102(io, cfg)
	if err != nil {
		bus.Close()
		return nil, err
	}
	return s, nil
}

func setupMAX30102(io regIO, cfg config.SensorConfig) (*MAX30102, error) {
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
	if err := c.clearFIFO(); err != nil {
		return nil, err
	}
	return &MAX30102{chip: c}, nil
}
