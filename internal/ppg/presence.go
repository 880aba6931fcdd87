package ppg

import "time"

// Presence is the debounced finger state after one observation.
type Presence struct {
	// Present is true when the raw IR sample is at or above the threshold.
	Present bool
	// Missing is how long the finger has been continuously absent.
	Missing time.Duration
	// Expired is true once Missing exceeds the grace period.
	Expired bool
	// Returned is true on the first present sample after an absence.
	Returned bool
	// Removed is true on the first absent sample.
	Removed bool
}

// PresenceMonitor debounces sensor dropout. Short absences are tolerated;
// an absence longer than the grace period expires.
type PresenceMonitor struct {
	threshold float64
	grace     time.Duration

	missing      bool
	missingSince time.Duration
}

// NewPresenceMonitor returns a monitor comparing IR samples to threshold.
func NewPresenceMonitor(threshold float64, grace time.Duration) *PresenceMonitor {
	return &PresenceMonitor{
		threshold: threshold,
		grace:     grace,
	}
}

// Observe classifies one raw IR sample taken at now.
func (m *PresenceMonitor) Observe(ir float64, now time.Duration) Presence {
	if ir >= m.threshold {
		p := Presence{Present: true, Returned: m.missing}
		m.missing = false
		return p
	}

	p := Presence{}
	if !m.missing {
		m.missing = true
		m.missingSince = now
		p.Removed = true
	}
	p.Missing = now - m.missingSince
	p.Expired = p.Missing > m.grace
	return p
}

// Present reports whether ir alone counts as a finger on the sensor.
func (m *PresenceMonitor) Present(ir float64) bool {
	return ir >= m.threshold
}

// Reset forgets any running absence.
func (m *PresenceMonitor) Reset() {
	m.missing = false
	m.missingSince = 0
}
