package ppg_test

import (
	"testing"
	"time"

	"ppg-monitor-be/internal/ppg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ms = time.Millisecond

// feed runs the detector over (ac, t) pairs and returns the reported beats.
func feed(d *ppg.BeatDetector, points [][2]float64) []time.Duration {
	var beats []time.Duration
	for _, p := range points {
		if at, ok := d.Process(p[0], time.Duration(p[1])*ms); ok {
			beats = append(beats, at)
		}
	}
	return beats
}

func TestBeatDetectorPeak(t *testing.T) {
	d := ppg.NewBeatDetector(250*ms, 50, ppg.NewTimeline(10))

	beats := feed(d, [][2]float64{
		{0, 1000},
		{100, 1010}, // rising
		{300, 1020},
		{200, 1030}, // falls while above the floor: beat
		{100, 1040},
	})

	require.Len(t, beats, 1)
	assert.Equal(t, 1030*ms, beats[0])
	assert.Equal(t, 1, d.Timeline().Len())
}

func TestBeatDetectorAmplitudeFloor(t *testing.T) {
	d := ppg.NewBeatDetector(250*ms, 50, ppg.NewTimeline(10))

	beats := feed(d, [][2]float64{
		{0, 1000},
		{40, 1010},
		{60, 1020},
		{45, 1030}, // peak below the floor
		{10, 1040},
	})

	assert.Empty(t, beats)
}

func TestBeatDetectorRefractory(t *testing.T) {
	d := ppg.NewBeatDetector(250*ms, 50, ppg.NewTimeline(10))

	beats := feed(d, [][2]float64{
		{0, 1000},
		{100, 1010},
		{200, 1020},
		{150, 1030}, // beat
		{160, 1080},
		{300, 1120},
		{250, 1130}, // 100ms later: inside the refractory window
		{0, 1200},
		{100, 1400},
		{200, 1500},
		{100, 1510}, // 480ms after the first beat
	})

	require.Len(t, beats, 2)
	assert.Equal(t, []time.Duration{1030 * ms, 1510 * ms}, beats)
}

func TestBeatDetectorRequiresRisingSlope(t *testing.T) {
	d := ppg.NewBeatDetector(250*ms, 50, ppg.NewTimeline(10))

	// monotonically falling from a high value never arms the detector
	beats := feed(d, [][2]float64{
		{-10, 1000},
		{-20, 1010},
	})
	assert.Empty(t, beats)

	d.Reset()
	beats = feed(d, [][2]float64{
		{500, 2000}, // rises from the reset prevAC of 0
		{400, 2010},
	})
	assert.Len(t, beats, 1)
}

func TestBeatDetectorTimelineCapacity(t *testing.T) {
	timeline := ppg.NewTimeline(2)
	d := ppg.NewBeatDetector(250*ms, 50, timeline)

	var points [][2]float64
	for i := 0; i < 4; i++ {
		base := float64(1000 + i*1000)
		points = append(points,
			[2]float64{0, base},
			[2]float64{200, base + 10},
			[2]float64{100, base + 20},
		)
	}

	beats := feed(d, points)
	assert.Len(t, beats, 2)
	assert.Equal(t, 2, timeline.Len())

	last, ok := timeline.Last()
	require.True(t, ok)
	assert.Equal(t, 2020*ms, last)
}
