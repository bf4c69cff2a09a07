package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsAverageAndFPS(t *testing.T) {
	m := NewMetrics()
	refreshed := false
	// 20ms frames, so one refresh lands around the 50th frame.
	for i := 0; i < 60; i++ {
		if m.Update(0.02) {
			refreshed = true
		}
	}
	assert.True(t, refreshed)
	assert.InDelta(t, 50, m.FPS(), 1)
	assert.InDelta(t, 20, m.FrameTime(), 0.01)
}

func TestMetricsAverageIsRolling(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < AVG_COUNT-1; i++ {
		m.Update(0.01)
	}
	assert.Zero(t, m.FrameTime(), "window not full yet")

	m.Update(0.01)
	assert.InDelta(t, 10, m.FrameTime(), 1e-6)

	for i := 0; i < AVG_COUNT; i++ {
		m.Update(0.03)
	}
	assert.InDelta(t, 30, m.FrameTime(), 1e-6)
}

func TestClock(t *testing.T) {
	now := time.Unix(100, 0)
	c := NewClock()
	c.now = func() time.Time { return now }

	c.Update()
	assert.Zero(t, c.Elapsed(), "not started")

	c.Start()
	now = now.Add(1500 * time.Millisecond)
	c.Update()
	assert.InDelta(t, 1.5, c.Elapsed(), 1e-9)

	c.Stop()
	now = now.Add(time.Second)
	c.Update()
	assert.InDelta(t, 1.5, c.Elapsed(), 1e-9)
}
