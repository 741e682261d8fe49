package behavior

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithSuspiciousScore sets the behavior score a user must exceed to be suspicious.
func WithSuspiciousScore(score float64) Option {
	return func(a *Analyzer) {
		if score >= 0 && score < 1 {
			a.suspiciousScore = score
		}
	}
}

// WithPromoPhrases replaces the promotional bio phrase list. Phrases are matched lower case.
func WithPromoPhrases(phrases ...string) Option {
	return func(a *Analyzer) {
		if len(phrases) > 0 {
			a.promoPhrases = lowerAll(phrases)
		}
	}
}
