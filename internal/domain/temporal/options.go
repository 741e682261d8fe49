package temporal

import "time"

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithBurstGap sets the largest gap between consecutive posts inside one burst.
func WithBurstGap(gap time.Duration) Option {
	return func(a *Analyzer) {
		if gap > 0 {
			a.burstGap = gap
		}
	}
}

// WithRegularWindow sets the mean interval below which a uniform cadence is suspicious.
func WithRegularWindow(window time.Duration) Option {
	return func(a *Analyzer) {
		if window > 0 {
			a.regularWindow = window
		}
	}
}

// WithRegularStdDev sets the interval standard deviation, in hours, below
// which a cadence counts as uniform.
func WithRegularStdDev(hours float64) Option {
	return func(a *Analyzer) {
		if hours > 0 {
			a.regularStdDevHours = hours
		}
	}
}

// WithMinClusterSize sets the distinct-user count a burst needs to be reported.
func WithMinClusterSize(size int) Option {
	return func(a *Analyzer) {
		if size > 1 {
			a.minClusterSize = size
		}
	}
}
