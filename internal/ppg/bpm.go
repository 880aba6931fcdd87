package ppg

import (
	"sort"
	"time"
)

// BPMRange bounds the heart rates that are reported as valid.
type BPMRange struct {
	Min float64
	Max float64
}

// Contains reports whether bpm lies inside the range, bounds included.
func (r BPMRange) Contains(bpm float64) bool {
	return bpm >= r.Min && bpm <= r.Max
}

// InstantBPM returns the heart rate implied by the last two beats, in whole
// beats per minute. It returns 0 with fewer than two beats or when the rate
// falls outside valid.
func InstantBPM(beats []time.Duration, valid BPMRange) int {
	n := len(beats)
	if n < 2 {
		return 0
	}
	delta := (beats[n-1] - beats[n-2]).Milliseconds()
	if delta <= 0 {
		return 0
	}
	bpm := int(60000 / delta)
	if !valid.Contains(float64(bpm)) {
		return 0
	}
	return bpm
}

// FinalBPM estimates the session heart rate from the whole beat timeline.
// The median inter-beat interval is preferred; the average rate over the
// first-to-last span is the fallback when the median is out of range.
// At least three beats are required, otherwise 0 is returned.
func FinalBPM(beats []time.Duration, valid BPMRange) float64 {
	if len(beats) < 3 {
		return 0
	}

	intervals := make([]float64, 0, len(beats)-1)
	for i := 1; i < len(beats); i++ {
		intervals = append(intervals, float64((beats[i] - beats[i-1]).Milliseconds()))
	}
	sort.Float64s(intervals)

	var median float64
	mid := len(intervals) / 2
	if len(intervals)%2 == 0 {
		median = (intervals[mid-1] + intervals[mid]) / 2
	} else {
		median = intervals[mid]
	}

	var medianBPM float64
	if median > 0 {
		medianBPM = 60000 / median
	}

	var averageBPM float64
	elapsed := float64((beats[len(beats)-1] - beats[0]).Milliseconds())
	if elapsed > 0 {
		averageBPM = float64(len(beats)-1) / (elapsed / 60000)
	}

	bpm := averageBPM
	if valid.Contains(medianBPM) {
		bpm = medianBPM
	}
	if !valid.Contains(bpm) {
		return 0
	}
	return bpm
}
