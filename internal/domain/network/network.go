// Package network derives coarse account clusters from shared content groups.
package network

import (
	"context"
	"fmt"

	"github.com/okian/coordwatch/internal/domain/model"
	"github.com/okian/coordwatch/internal/domain/types"
)

// Default analyzer configuration constants.
const (
	DefaultMinClusterSize = 3
	suspicionScale        = 10.0
	componentDensity      = 1.0

	method = "content_similarity_based"
)

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithMinClusterSize sets the group size that becomes a component.
func WithMinClusterSize(size int) Option {
	return func(a *Analyzer) {
		if size > 1 {
			a.minClusterSize = size
		}
	}
}

// Analyzer treats every large enough similarity group as a fully connected component.
type Analyzer struct {
	minClusterSize int
}

// New creates a network structure analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{minClusterSize: DefaultMinClusterSize}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze builds components from content. totalUsers is the batch population;
// interactions are only counted when both ends share a component.
func (a *Analyzer) Analyze(ctx context.Context, content types.ContentReport, totalUsers int, interactions map[string][]model.Interaction) (types.NetworkReport, error) {
	if err := ctx.Err(); err != nil {
		return types.NetworkReport{}, fmt.Errorf("network structure: %w", err)
	}
	report := types.NetworkReport{
		StageResult: types.StageResult{Status: types.StatusAnalyzed, Method: method},
		Components:  []types.NetworkComponent{},
		TotalUsers:  totalUsers,
	}
	if !content.Analyzed() {
		report.StageResult = types.Insufficient()
		return report, nil
	}

	member := make(map[string][]int)
	for _, g := range content.Groups {
		if len(g.Users) < a.minClusterSize {
			continue
		}
		idx := len(report.Components)
		users := append([]string(nil), g.Users...)
		for _, u := range users {
			member[u] = append(member[u], idx)
		}
		report.Components = append(report.Components, types.NetworkComponent{
			Users:          users,
			Size:           len(users),
			Density:        componentDensity,
			SuspicionScore: min(1, float64(len(users))/suspicionScale),
		})
		report.TotalConnections += len(users)
	}

	report.ComponentCount = len(report.Components)
	report.NetworkDensity = float64(report.ComponentCount) / float64(max(1, totalUsers))
	report.InteractionEdges = countInternalEdges(member, interactions)
	return report, nil
}

func countInternalEdges(member map[string][]int, interactions map[string][]model.Interaction) int {
	edges := 0
	for src, list := range interactions {
		from, ok := member[src]
		if !ok {
			continue
		}
		for _, in := range list {
			if shareAny(from, member[in.TargetUserID]) {
				edges++
			}
		}
	}
	return edges
}

func shareAny(a, b []int) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
