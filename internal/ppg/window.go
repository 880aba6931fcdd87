package ppg

// SampleWindow is a fixed-capacity ring of raw IR samples. Its mean is the
// DC baseline of the signal.
type SampleWindow struct {
	buffer []float64
	idx    int
	sum    float64
	seeded bool
}

// NewSampleWindow returns a window holding the last capacity samples.
func NewSampleWindow(capacity int) *SampleWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &SampleWindow{
		buffer: make([]float64, capacity),
	}
}

// Update inserts raw over the oldest slot and returns the new baseline and
// the pulsatile component of raw. The first sample seeds every slot so the
// baseline does not start biased toward zero.
func (w *SampleWindow) Update(raw float64) (dc, ac float64) {
	if !w.seeded {
		for i := range w.buffer {
			w.buffer[i] = raw
		}
		w.sum = raw * float64(len(w.buffer))
		w.seeded = true
	}

	w.sum += raw - w.buffer[w.idx]
	w.buffer[w.idx] = raw
	w.idx++
	w.idx %= len(w.buffer)

	// resum once per cycle so float drift stays bounded
	if w.idx == 0 {
		w.sum = 0
		for _, v := range w.buffer {
			w.sum += v
		}
	}

	dc = w.Mean()
	return dc, raw - dc
}

// Mean returns the current baseline, or 0 before the first sample.
func (w *SampleWindow) Mean() float64 {
	if !w.seeded {
		return 0
	}
	return w.sum / float64(len(w.buffer))
}

// Len returns the window capacity.
func (w *SampleWindow) Len() int {
	return len(w.buffer)
}

// Values returns a copy of the window contents, oldest first.
func (w *SampleWindow) Values() []float64 {
	out := make([]float64, 0, len(w.buffer))
	if !w.seeded {
		return out
	}
	for i := 0; i < len(w.buffer); i++ {
		out = append(out, w.buffer[(w.idx+i)%len(w.buffer)])
	}
	return out
}

// Reset empties the window. The next sample seeds it again.
func (w *SampleWindow) Reset() {
	for i := range w.buffer {
		w.buffer[i] = 0
	}
	w.idx = 0
	w.sum = 0
	w.seeded = false
}
