package ppg

import "time"

// Timeline is the ordered, capacity-bounded list of beat timestamps of one
// session. Timestamps are offsets from process start.
type Timeline struct {
	beats    []time.Duration
	capacity int
}

// NewTimeline returns an empty timeline holding at most capacity beats.
func NewTimeline(capacity int) *Timeline {
	return &Timeline{
		beats:    make([]time.Duration, 0, capacity),
		capacity: capacity,
	}
}

// Append records a beat. It returns false when the timeline is full and the
// beat was dropped.
func (t *Timeline) Append(at time.Duration) bool {
	if len(t.beats) >= t.capacity {
		return false
	}
	t.beats = append(t.beats, at)
	return true
}

// Len returns the number of recorded beats.
func (t *Timeline) Len() int {
	return len(t.beats)
}

// Last returns the most recent beat.
func (t *Timeline) Last() (time.Duration, bool) {
	if len(t.beats) == 0 {
		return 0, false
	}
	return t.beats[len(t.beats)-1], true
}

// Beats returns a copy of the recorded beats.
func (t *Timeline) Beats() []time.Duration {
	out := make([]time.Duration, len(t.beats))
	copy(out, t.beats)
	return out
}

// Reset clears the timeline.
func (t *Timeline) Reset() {
	t.beats = t.beats[:0]
}

// BeatDetector is a two-state slope tracker over the AC signal. A beat is a
// transition from rising to falling that happens outside the refractory
// window and above the amplitude floor.
type BeatDetector struct {
	minInterval time.Duration
	floor       float64

	rising   bool
	prevAC   float64
	lastBeat time.Duration
	hasBeat  bool

	timeline *Timeline
}

// NewBeatDetector returns a detector that records beats into timeline.
func NewBeatDetector(minInterval time.Duration, floor float64, timeline *Timeline) *BeatDetector {
	return &BeatDetector{
		minInterval: minInterval,
		floor:       floor,
		timeline:    timeline,
	}
}

// Process feeds one AC value taken at now. It returns the beat time and true
// when a new beat was recorded. Peaks found while the timeline is full reset
// the slope state but are not reported.
func (b *BeatDetector) Process(ac float64, now time.Duration) (time.Duration, bool) {
	defer func() { b.prevAC = ac }()

	if ac > b.prevAC && !b.rising {
		b.rising = true
		return 0, false
	}

	if ac < b.prevAC && b.rising && b.outsideRefractory(now) && ac > b.floor {
		b.rising = false
		b.lastBeat = now
		b.hasBeat = true
		if !b.timeline.Append(now) {
			return 0, false
		}
		return now, true
	}

	return 0, false
}

func (b *BeatDetector) outsideRefractory(now time.Duration) bool {
	return !b.hasBeat || now-b.lastBeat > b.minInterval
}

// Reset clears the slope state. The refractory reference is kept, a new
// session cannot place a beat closer than minInterval to the previous one.
func (b *BeatDetector) Reset() {
	b.rising = false
	b.prevAC = 0
}

// Timeline returns the timeline the detector records into.
func (b *BeatDetector) Timeline() *Timeline {
	return b.timeline
}
