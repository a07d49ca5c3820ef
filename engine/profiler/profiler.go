// Package profiler aggregates frame timing and memory statistics and logs
// them at a fixed interval.
package profiler

import (
	"log"
	"runtime"
	"time"
)

// Profiler accumulates per-frame samples and periodically logs FPS, frame
// time spread, heap usage, allocation rate, and GC pauses. A disabled
// profiler discards samples without touching the clock or MemStats.
type Profiler struct {
	enabled  bool
	interval time.Duration

	frameCount int
	frameTotal time.Duration
	frameWorst time.Duration
	lastFlush  time.Time

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// Sample records one frame's duration and logs aggregated statistics when
// the reporting interval has elapsed.
//
// Parameters:
//   - frame: the duration of the frame just finished
//
// Returns:
//   - bool: true if stats were logged this call
func (p *Profiler) Sample(frame time.Duration) bool {
	if !p.enabled {
		return false
	}

	p.frameCount++
	p.frameTotal += frame
	if frame > p.frameWorst {
		p.frameWorst = frame
	}

	now := time.Now()
	if p.lastFlush.IsZero() {
		p.lastFlush = now
		return false
	}
	elapsed := now.Sub(p.lastFlush)
	if elapsed < p.interval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	avgMs := p.frameTotal.Seconds() * 1000 / float64(p.frameCount)
	worstMs := p.frameWorst.Seconds() * 1000

	runtime.ReadMemStats(&p.memStats)
	heapMB := float64(p.memStats.Alloc) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var maxPauseUs uint64
	if gcCount > 0 {
		start := p.lastGCCount
		if gcCount-start > 256 {
			start = gcCount - 256
		}
		for i := start; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	log.Printf("[profiler] fps: %.1f | frame: %.2f ms avg, %.2f ms worst | heap: %.1f MB | alloc: %.2f MB/s | gc: %d (max pause %d µs)",
		fps, avgMs, worstMs, heapMB, allocRateMB, gcCount, maxPauseUs)

	p.frameCount = 0
	p.frameTotal = 0
	p.frameWorst = 0
	p.lastFlush = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Enabled reports whether sampling is active.
//
// Returns:
//   - bool: true when enabled
func (p *Profiler) Enabled() bool { return p.enabled }

// SetEnabled toggles sampling. Disabling resets the aggregation window so
// stale samples never leak into the next report.
//
// Parameters:
//   - enabled: the new state
func (p *Profiler) SetEnabled(enabled bool) {
	p.enabled = enabled
	p.frameCount = 0
	p.frameTotal = 0
	p.frameWorst = 0
	p.lastFlush = time.Time{}
}
