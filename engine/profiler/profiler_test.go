package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickReportsAfterInterval(t *testing.T) {
	p := NewProfiler(WithInterval(time.Hour))
	for range 10 {
		assert.False(t, p.Tick())
	}
	assert.Zero(t, p.Last().FPS)

	p.updateInterval = time.Second
	p.lastTime = time.Now().Add(-2 * time.Second)
	assert.True(t, p.Tick())

	stats := p.Last()
	assert.InDelta(t, 5.5, stats.FPS, 0.1)
	assert.InDelta(t, float64(2*time.Second/11), float64(stats.FrameTime), float64(10*time.Millisecond))
	assert.Greater(t, stats.SysMB, 0.0)
	assert.Zero(t, p.frameCount)
}

func TestZeroIntervalReportsEveryTick(t *testing.T) {
	p := NewProfiler(WithInterval(0))
	assert.True(t, p.Tick())
	assert.True(t, p.Tick())
}
