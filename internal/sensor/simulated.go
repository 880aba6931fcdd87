package sensor

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	simIRBaseline  = 50000.0
	simIRAmplitude = 5000.0
	simRedBaseline = 50000.0
	simAmbient     = 1000.0
)

type SimulatedOptions struct {
	HeartRate float64 // beats per minute
	Ratio     float64 // red/IR ratio of ratios
	Noise     float64 // peak noise in counts
	Seed      int64
}

// Simulated synthesizes a sinusoidal pulse wave on both channels. The red
// amplitude is derived from Ratio so the ratio of ratios matches it. Noise is
// shared between the channels, like motion artifact on a real finger.
type Simulated struct {
	opts  SimulatedOptions
	now   func() time.Time
	start time.Time

	mu      sync.Mutex
	rng     *rand.Rand
	present bool
}

// NewSimulated returns a simulated sensor with a finger already placed.
// now is the clock the waveform phase is derived from.
func NewSimulated(opts SimulatedOptions, now func() time.Time) *Simulated {
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	return &Simulated{
		opts:    opts,
		now:     now,
		start:   now(),
		rng:     rand.New(rand.NewSource(opts.Seed)),
		present: true,
	}
}

func (s *Simulated) Poll() (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	noise := (s.rng.Float64()*2 - 1) * s.opts.Noise

	if !s.present {
		return Sample{
			IR:  simAmbient + noise,
			Red: simAmbient + noise,
		}, nil
	}

	elapsed := s.now().Sub(s.start).Seconds()
	wave := math.Sin(2 * math.Pi * s.opts.HeartRate / 60 * elapsed)

	redAmplitude := s.opts.Ratio * simIRAmplitude * simRedBaseline / simIRBaseline
	redNoise := noise * redAmplitude / simIRAmplitude

	return Sample{
		IR:  simIRBaseline + simIRAmplitude*wave + noise,
		Red: simRedBaseline + redAmplitude*wave + redNoise,
	}, nil
}

func (s *Simulated) SetFingerPresent(present bool) {
	s.mu.Lock()
	s.present = present
	s.mu.Unlock()
}

func (s *Simulated) Close() error {
	return nil
}
