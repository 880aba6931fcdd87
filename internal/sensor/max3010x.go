package sensor

import (
	"fmt"
	"time"

	"ppg-monitor-be/internal/config"
)

// Register map shared by the MAX30102 and MAX30105.
const (
	regFIFOWritePtr = 0x04
	regFIFOOverflow = 0x05
	regFIFOReadPtr  = 0x06
	regFIFOData     = 0x07
	regFIFOConfig   = 0x08
	regModeConfig   = 0x09
	regParticleCfg  = 0x0A
	regLED1PulseAmp = 0x0C // red
	regLED2PulseAmp = 0x0D // IR
	regLED3PulseAmp = 0x0E // green, MAX30105 only
	regLEDProxAmp   = 0x10
	regMultiLED1    = 0x11
	regPartID       = 0xFF

	expectedPartID = 0x15
	fifoDepth      = 32
	bytesPerSample = 6 // red + IR, 3 bytes each

	sampleAverageMask = 0x1F
	rolloverMask      = 0xEF
	rolloverEnable    = 0x10
	modeMask          = 0xF8
	modeRedIR         = 0x03
	resetMask         = 0xBF
	resetBit          = 0x40
	adcRangeMask      = 0x9F
	sampleRateMask    = 0xE3
	pulseWidthMask    = 0xFC
	slot1Mask         = 0xF8
	slot2Mask         = 0x8F
	slotRedLED        = 0x01
	slotIRLED         = 0x02

	adcMask = 0x3FFFF
)

var (
	sampleAverageBits = map[int]byte{1: 0x00, 2: 0x20, 4: 0x40, 8: 0x60, 16: 0x80, 32: 0xA0}
	sampleRateBits    = map[int]byte{50: 0x00, 100: 0x04, 200: 0x08, 400: 0x0C, 800: 0x10, 1000: 0x14, 1600: 0x18, 3200: 0x1C}
	pulseWidthBits    = map[int]byte{69: 0x00, 118: 0x01, 215: 0x02, 411: 0x03}
	adcRangeBits      = map[int]byte{2048: 0x00, 4096: 0x20, 8192: 0x40, 16384: 0x60}
)

// regIO is single-register access on one I2C device.
type regIO interface {
	ReadReg(reg byte) (byte, error)
	ReadRegs(reg byte, n int) ([]byte, error)
	WriteReg(reg, value byte) error
	Close() error
}

// chip drives the FIFO of a MAX3010x in red+IR mode.
type chip struct {
	io      regIO
	pending []Sample
}

func newChip(io regIO) (*chip, error) {
	part, err := io.ReadReg(regPartID)
	if err != nil {
		return nil, fmt.Errorf("could not get part ID: %w", err)
	}
	if part != expectedPartID {
		return nil, fmt.Errorf("%w: got %#x", ErrNotDevice, part)
	}
	return &chip{io: io}, nil
}

func (c *chip) bitMask(reg, mask, value byte) error {
	original, err := c.io.ReadReg(reg)
	if err != nil {
		return err
	}
	return c.io.WriteReg(reg, (original&mask)|value)
}

// reset triggers a soft reset and waits for the device to clear the bit.
func (c *chip) reset(timeout time.Duration) error {
	if err := c.bitMask(regModeConfig, resetMask, resetBit); err != nil {
		return fmt.Errorf("could not reset: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		mode, err := c.io.ReadReg(regModeConfig)
		if err != nil {
			return fmt.Errorf("could not reset: %w", err)
		}
		if mode&resetBit == 0 {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
	return fmt.Errorf("could not reset: timed out after %s", timeout)
}

// configure applies the acquisition settings in red+IR mode.
func (c *chip) configure(cfg config.SensorConfig) error {
	avg, ok := sampleAverageBits[cfg.SampleAvg]
	if !ok {
		return fmt.Errorf("invalid sample average %d", cfg.SampleAvg)
	}
	rate, ok := sampleRateBits[cfg.SampleRate]
	if !ok {
		return fmt.Errorf("invalid sample rate %d", cfg.SampleRate)
	}
	pw, ok := pulseWidthBits[cfg.PulseWidth]
	if !ok {
		return fmt.Errorf("invalid pulse width %d", cfg.PulseWidth)
	}
	adc, ok := adcRangeBits[cfg.ADCRange]
	if !ok {
		return fmt.Errorf("invalid ADC range %d", cfg.ADCRange)
	}
	amp := byte(cfg.LEDAmplitude)

	steps := []struct {
		name string
		fn   func() error
	}{
		{"sample average", func() error { return c.bitMask(regFIFOConfig, sampleAverageMask, avg) }},
		{"fifo rollover", func() error { return c.bitMask(regFIFOConfig, rolloverMask, rolloverEnable) }},
		{"led mode", func() error { return c.bitMask(regModeConfig, modeMask, modeRedIR) }},
		{"adc range", func() error { return c.bitMask(regParticleCfg, adcRangeMask, adc) }},
		{"sample rate", func() error { return c.bitMask(regParticleCfg, sampleRateMask, rate) }},
		{"pulse width", func() error { return c.bitMask(regParticleCfg, pulseWidthMask, pw) }},
		{"red amplitude", func() error { return c.io.WriteReg(regLED1PulseAmp, amp) }},
		{"ir amplitude", func() error { return c.io.WriteReg(regLED2PulseAmp, amp) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("could not configure %s: %w", step.name, err)
		}
	}
	return nil
}

// enableSlots maps slot 1 to the red LED and slot 2 to IR.
func (c *chip) enableSlots() error {
	if err := c.bitMask(regMultiLED1, slot1Mask, slotRedLED); err != nil {
		return err
	}
	return c.bitMask(regMultiLED1, slot2Mask, slotIRLED<<4)
}

func (c *chip) clearFIFO() error {
	for _, reg := range []byte{regFIFOWritePtr, regFIFOOverflow, regFIFOReadPtr} {
		if err := c.io.WriteReg(reg, 0); err != nil {
			return fmt.Errorf("could not clear FIFO: %w", err)
		}
	}
	c.pending = c.pending[:0]
	return nil
}

func (c *chip) available() (int, error) {
	wr, err := c.io.ReadReg(regFIFOWritePtr)
	if err != nil {
		return 0, err
	}
	rd, err := c.io.ReadReg(regFIFOReadPtr)
	if err != nil {
		return 0, err
	}
	if wr != rd {
		return (int(wr) + fifoDepth - int(rd)) % fifoDepth, nil
	}

	// equal pointers mean empty, or full when the overflow counter moved
	ovf, err := c.io.ReadReg(regFIFOOverflow)
	if err != nil {
		return 0, err
	}
	if ovf > 0 {
		return fifoDepth, nil
	}
	return 0, nil
}

func (c *chip) readFIFO() error {
	n, err := c.available()
	if err != nil {
		return fmt.Errorf("could not read FIFO pointers: %w", err)
	}
	if n == 0 {
		return nil
	}

	data, err := c.io.ReadRegs(regFIFOData, n*bytesPerSample)
	if err != nil {
		return fmt.Errorf("could not read FIFO data: %w", err)
	}
	for i := 0; i+bytesPerSample <= len(data); i += bytesPerSample {
		c.pending = append(c.pending, Sample{
			Red: float64(decodeCount(data[i : i+3])),
			IR:  float64(decodeCount(data[i+3 : i+6])),
		})
	}
	return nil
}

// Poll returns the oldest unread sample, refilling from the FIFO as needed.
func (c *chip) Poll() (Sample, error) {
	if len(c.pending) == 0 {
		if err := c.readFIFO(); err != nil {
			return Sample{}, err
		}
	}
	if len(c.pending) == 0 {
		return Sample{}, ErrNoData
	}

	s := c.pending[0]
	c.pending = c.pending[1:]
	return s, nil
}

func (c *chip) Close() error {
	return c.io.Close()
}

// decodeCount unpacks one 18-bit big-endian ADC count.
func decodeCount(b []byte) uint32 {
	return (uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])) & adcMask
}
