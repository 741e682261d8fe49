package similarity

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithThreshold sets the Jaccard overlap a pair must exceed to be similar.
func WithThreshold(threshold float64) Option {
	return func(a *Analyzer) {
		if threshold > 0 && threshold <= 1 {
			a.threshold = threshold
		}
	}
}

// WithMinClusterSize sets the distinct-user count a group needs to be reported.
func WithMinClusterSize(size int) Option {
	return func(a *Analyzer) {
		if size > 1 {
			a.minClusterSize = size
		}
	}
}

// WithExhaustiveScan disables the fingerprint index and compares every pair.
func WithExhaustiveScan() Option {
	return func(a *Analyzer) {
		a.exhaustive = true
	}
}
