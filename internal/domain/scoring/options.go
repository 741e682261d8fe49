package scoring

// Option applies a configuration option to the FusionScorer.
type Option func(*FusionScorer)

// WithWeights sets the per-signal fusion weights.
func WithWeights(w Weights) Option {
	return func(s *FusionScorer) {
		s.weights = w
	}
}

// WithWeightsFromConfig sets weights from a configuration map keyed by
// content, temporal, behavior and network. Missing keys keep their default.
func WithWeightsFromConfig(weights map[string]float64) Option {
	return func(s *FusionScorer) {
		for key, v := range weights {
			switch key {
			case SignalContent:
				s.weights.Content = v
			case SignalTemporal:
				s.weights.Temporal = v
			case SignalBehavior:
				s.weights.Behavior = v
			case SignalNetwork:
				s.weights.Network = v
			}
		}
	}
}

// WithRiskThresholds sets the exclusive lower bounds of the LOW, MEDIUM and HIGH levels.
func WithRiskThresholds(low, medium, high float64) Option {
	return func(s *FusionScorer) {
		s.thresholds = Thresholds{Low: low, Medium: medium, High: high}
	}
}
