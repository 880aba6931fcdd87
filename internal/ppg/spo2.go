package ppg

import "math"

const (
	spo2WindowSize = 10

	spo2Intercept = 110.0
	spo2Slope     = 25.0

	spo2NewWeight = 0.3

	spo2Min = 80
	spo2Max = 100
)

// series is a fixed ring of samples tracking its min and max.
type series struct {
	buffer []float64
	idx    int
	filled bool

	min float64
	max float64
}

func newSeries(size int) *series {
	return &series{
		buffer: make([]float64, size),
	}
}

func (s *series) add(v float64) {
	old := s.buffer[s.idx]
	s.buffer[s.idx] = v
	s.idx++
	if s.idx == len(s.buffer) {
		s.idx = 0
		s.filled = true
	}

	if old == s.max || old == s.min || v > s.max || v < s.min {
		s.rescan()
	}
}

func (s *series) rescan() {
	s.min = s.buffer[0]
	s.max = s.buffer[0]
	for _, b := range s.buffer[1:] {
		if b > s.max {
			s.max = b
		}
		if b < s.min {
			s.min = b
		}
	}
}

func (s *series) reset() {
	for i := range s.buffer {
		s.buffer[i] = 0
	}
	s.idx = 0
	s.filled = false
	s.min = 0
	s.max = 0
}

// SpO2Estimator derives oxygen saturation from the ratio of ratios over a
// short rolling window of raw Red/IR pairs, smoothed against the previous
// value. The formula is a coarse empirical fit, not a clinical one.
type SpO2Estimator struct {
	red *series
	ir  *series

	value int
}

// NewSpO2Estimator returns an estimator with no reading yet.
func NewSpO2Estimator() *SpO2Estimator {
	return &SpO2Estimator{
		red: newSeries(spo2WindowSize),
		ir:  newSeries(spo2WindowSize),
	}
}

// Update pushes one raw pair and recomputes the estimate once the window has
// been filled. It returns the current value and whether it was updated. When
// the AC/DC guard fails the previous value is kept.
func (e *SpO2Estimator) Update(red, ir float64) (int, bool) {
	e.red.add(red)
	e.ir.add(ir)

	if !e.ir.filled {
		return e.value, false
	}

	redAC := e.red.max - e.red.min
	redDC := e.red.min
	irAC := e.ir.max - e.ir.min
	irDC := e.ir.min

	if irAC <= 0 || redDC <= 0 || irDC <= 0 {
		return e.value, false
	}

	r := (redAC / redDC) / (irAC / irDC)
	spo2 := spo2Intercept - spo2Slope*r
	if e.value > 0 {
		spo2 = spo2NewWeight*spo2 + (1-spo2NewWeight)*float64(e.value)
	}

	e.value = int(math.Round(ClampSpO2(spo2)))
	return e.value, true
}

// Value returns the last estimate, 0 when none has been made.
func (e *SpO2Estimator) Value() int {
	return e.value
}

// Reset drops the window and the previous estimate.
func (e *SpO2Estimator) Reset() {
	e.red.reset()
	e.ir.reset()
	e.value = 0
}

// ClampSpO2 saturates v to the reportable range.
func ClampSpO2(v float64) float64 {
	return math.Max(spo2Min, math.Min(spo2Max, v))
}
