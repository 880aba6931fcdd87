package ppg_test

import (
	"math"
	"testing"

	"ppg-monitor-be/internal/ppg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alternate returns lo for even i and hi for odd i.
func alternate(i int, lo, hi float64) float64 {
	if i%2 == 0 {
		return lo
	}
	return hi
}

func TestSpO2WaitsForFullWindow(t *testing.T) {
	e := ppg.NewSpO2Estimator()

	for i := 0; i < 9; i++ {
		v, ok := e.Update(alternate(i, 49500, 50500), alternate(i, 49000, 51000))
		assert.False(t, ok)
		assert.Zero(t, v)
	}

	v, ok := e.Update(50500, 51000)
	require.True(t, ok)

	r := (1000.0 / 49500) / (2000.0 / 49000)
	assert.Equal(t, int(math.Round(110-25*r)), v)
}

func TestSpO2Smoothing(t *testing.T) {
	e := ppg.NewSpO2Estimator()

	var first int
	for i := 0; i < 10; i++ {
		first, _ = e.Update(alternate(i, 49500, 50500), alternate(i, 49000, 51000))
	}
	require.NotZero(t, first)

	// red flat: R = 0, raw estimate 110
	for i := 0; i < 10; i++ {
		e.Update(50000, alternate(i, 49000, 51000))
	}
	assert.Equal(t, 100, e.Value())
}

func TestSpO2Clamp(t *testing.T) {
	t.Run("upper", func(t *testing.T) {
		e := ppg.NewSpO2Estimator()
		var v int
		for i := 0; i < 10; i++ {
			v, _ = e.Update(50000, alternate(i, 49000, 51000))
		}
		assert.Equal(t, 100, v)
	})

	t.Run("lower", func(t *testing.T) {
		e := ppg.NewSpO2Estimator()
		var v int
		for i := 0; i < 10; i++ {
			v, _ = e.Update(alternate(i, 10000, 30000), alternate(i, 49000, 51000))
		}
		assert.Equal(t, 80, v)
	})

	assert.Equal(t, 80.0, ppg.ClampSpO2(-3))
	assert.Equal(t, 100.0, ppg.ClampSpO2(112))
	assert.Equal(t, 95.5, ppg.ClampSpO2(95.5))
}

func TestSpO2GuardKeepsPreviousValue(t *testing.T) {
	e := ppg.NewSpO2Estimator()
	for i := 0; i < 10; i++ {
		e.Update(50000, alternate(i, 49000, 51000))
	}
	require.Equal(t, 100, e.Value())

	// flat IR has no pulsatile component
	var ok bool
	for i := 0; i < 10; i++ {
		_, ok = e.Update(50000, 50000)
	}
	assert.False(t, ok)
	assert.Equal(t, 100, e.Value())

	e.Reset()
	assert.Zero(t, e.Value())
}
