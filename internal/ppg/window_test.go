package ppg_test

import (
	"math/rand"
	"testing"

	"ppg-monitor-be/internal/ppg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleWindowSeedsWithFirstSample(t *testing.T) {
	w := ppg.NewSampleWindow(100)

	dc, ac := w.Update(50000)
	assert.InDelta(t, 50000, dc, 1e-9)
	assert.InDelta(t, 0, ac, 1e-9)
	assert.Len(t, w.Values(), 100)
}

func TestSampleWindowMeanMatchesContents(t *testing.T) {
	const capacity = 150
	w := ppg.NewSampleWindow(capacity)
	rng := rand.New(rand.NewSource(7))

	var history []float64
	for i := 0; i < 5000; i++ {
		raw := 40000 + rng.Float64()*20000
		history = append(history, raw)

		dc, ac := w.Update(raw)

		if len(history) < capacity {
			continue
		}
		var sum float64
		for _, v := range history[len(history)-capacity:] {
			sum += v
		}
		mean := sum / capacity

		require.InDelta(t, mean, dc, 1e-6)
		require.InDelta(t, raw-mean, ac, 1e-6)
	}
	assert.Equal(t, history[len(history)-capacity:], w.Values())
}

func TestSampleWindowReset(t *testing.T) {
	w := ppg.NewSampleWindow(4)
	w.Update(10)
	w.Update(20)

	w.Reset()
	assert.Zero(t, w.Mean())
	assert.Empty(t, w.Values())

	dc, _ := w.Update(30)
	assert.InDelta(t, 30, dc, 1e-9)
}
