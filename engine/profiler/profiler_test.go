package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfilerDisabledDiscardsSamples(t *testing.T) {
	p := NewProfiler(WithEnabled(false))
	for i := 0; i < 100; i++ {
		assert.False(t, p.Sample(time.Millisecond))
	}
	assert.Zero(t, p.frameCount)
}

func TestProfilerFlushesAfterInterval(t *testing.T) {
	p := NewProfiler(WithInterval(time.Nanosecond))

	// First sample only opens the aggregation window.
	assert.False(t, p.Sample(time.Millisecond))

	time.Sleep(time.Millisecond)
	assert.True(t, p.Sample(time.Millisecond))
	assert.Zero(t, p.frameCount)
}

func TestProfilerHoldsUntilInterval(t *testing.T) {
	p := NewProfiler(WithInterval(time.Hour))
	p.Sample(time.Millisecond)
	assert.False(t, p.Sample(2*time.Millisecond))
	assert.Equal(t, 2, p.frameCount)
	assert.Equal(t, 2*time.Millisecond, p.frameWorst)
}

func TestWithIntervalPanicsOnNonPositive(t *testing.T) {
	assert.PanicsWithValue(t, "profiler: WithInterval requires a positive interval", func() {
		WithInterval(0)
	})
}
