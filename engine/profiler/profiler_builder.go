package profiler

import "time"

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(*Profiler)

// NewProfiler creates an enabled profiler with a 5 second reporting
// interval.
//
// Parameters:
//   - opts: builder options
//
// Returns:
//   - *Profiler: the configured profiler
func NewProfiler(opts ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		enabled:  true,
		interval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithInterval sets the reporting interval. Panics on non-positive
// intervals.
//
// Parameters:
//   - interval: time between log lines
//
// Returns:
//   - ProfilerBuilderOption: the option function
func WithInterval(interval time.Duration) ProfilerBuilderOption {
	if interval <= 0 {
		panic("profiler: WithInterval requires a positive interval")
	}
	return func(p *Profiler) {
		p.interval = interval
	}
}

// WithEnabled sets the initial enabled state.
//
// Parameters:
//   - enabled: whether sampling starts active
//
// Returns:
//   - ProfilerBuilderOption: the option function
func WithEnabled(enabled bool) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.enabled = enabled
	}
}
