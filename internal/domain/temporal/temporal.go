// Package temporal finds bursts of near-simultaneous posting and accounts
// with an unnaturally regular cadence.
package temporal

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/okian/coordwatch/internal/domain/model"
	"github.com/okian/coordwatch/internal/domain/types"
)

// Default analyzer configuration constants.
const (
	DefaultBurstGap           = time.Hour
	DefaultRegularWindow      = 24 * time.Hour
	DefaultRegularStdDevHours = 0.5
	DefaultMinClusterSize     = 3
	minEvents                 = 2
	minRegularPosts           = 3

	method = "time_window_clustering"
)

// Analyzer implements burst clustering and cadence regularity checks.
type Analyzer struct {
	burstGap           time.Duration
	regularWindow      time.Duration
	regularStdDevHours float64
	minClusterSize     int
}

// New creates a temporal pattern analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		burstGap:           DefaultBurstGap,
		regularWindow:      DefaultRegularWindow,
		regularStdDevHours: DefaultRegularStdDevHours,
		minClusterSize:     DefaultMinClusterSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze sorts the timeline and reports bursts and regular posters.
// Substituted timestamps take part in bursts but not in cadence checks.
func (a *Analyzer) Analyze(ctx context.Context, timeline []model.TimelineEvent) (types.TemporalReport, error) {
	report := types.TemporalReport{
		StageResult:    types.StageResult{Status: types.StatusAnalyzed, Method: method},
		Clusters:       []types.TemporalCluster{},
		RegularPosters: []types.RegularPoster{},
	}
	for _, ev := range timeline {
		if ev.Fallback {
			report.FallbackTimestamps++
		}
	}
	if len(timeline) < minEvents {
		report.StageResult = types.Insufficient()
		return report, nil
	}

	sorted := slices.Clone(timeline)
	slices.SortStableFunc(sorted, func(x, y model.TimelineEvent) int {
		return x.Timestamp.Compare(y.Timestamp)
	})

	if err := ctx.Err(); err != nil {
		return types.TemporalReport{}, fmt.Errorf("temporal patterns: %w", err)
	}
	report.Clusters = a.bursts(sorted)
	report.ClusterCount = len(report.Clusters)

	if err := ctx.Err(); err != nil {
		return types.TemporalReport{}, fmt.Errorf("temporal patterns: %w", err)
	}
	report.RegularPosters = a.regularPosters(sorted)
	return report, nil
}

// bursts walks the sorted timeline, closing a burst on any gap above burstGap.
func (a *Analyzer) bursts(sorted []model.TimelineEvent) []types.TemporalCluster {
	clusters := []types.TemporalCluster{}
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i].Timestamp.Sub(sorted[i-1].Timestamp) <= a.burstGap {
			continue
		}
		if c, ok := a.cluster(sorted[start:i]); ok {
			clusters = append(clusters, c)
		}
		start = i
	}
	return clusters
}

func (a *Analyzer) cluster(run []model.TimelineEvent) (types.TemporalCluster, bool) {
	if len(run) < a.minClusterSize {
		return types.TemporalCluster{}, false
	}
	seen := make(map[string]struct{}, len(run))
	users := make([]string, 0, len(run))
	for _, ev := range run {
		if _, ok := seen[ev.UserID]; ok {
			continue
		}
		seen[ev.UserID] = struct{}{}
		users = append(users, ev.UserID)
	}
	if len(users) < a.minClusterSize {
		return types.TemporalCluster{}, false
	}
	first, last := run[0].Timestamp, run[len(run)-1].Timestamp
	return types.TemporalCluster{
		Start:           first,
		End:             last,
		PostCount:       len(run),
		UserCount:       len(users),
		Users:           users,
		DurationMinutes: last.Sub(first).Minutes(),
	}, true
}

// regularPosters flags users with at least three posts whose inter-post gaps
// have a small spread and a short mean.
func (a *Analyzer) regularPosters(sorted []model.TimelineEvent) []types.RegularPoster {
	var order []string
	times := make(map[string][]time.Time)
	for _, ev := range sorted {
		if ev.Fallback {
			continue
		}
		if _, ok := times[ev.UserID]; !ok {
			order = append(order, ev.UserID)
		}
		times[ev.UserID] = append(times[ev.UserID], ev.Timestamp)
	}

	out := []types.RegularPoster{}
	windowHours := a.regularWindow.Hours()
	for _, userID := range order {
		ts := times[userID]
		if len(ts) < minRegularPosts {
			continue
		}
		intervals := make([]float64, 0, len(ts)-1)
		for i := 1; i < len(ts); i++ {
			intervals = append(intervals, ts[i].Sub(ts[i-1]).Hours())
		}
		mean, std := meanStdDev(intervals)
		if std < a.regularStdDevHours && mean < windowHours {
			out = append(out, types.RegularPoster{
				UserID:              userID,
				AvgIntervalHours:    mean,
				IntervalStdDevHours: std,
				PostCount:           len(ts),
			})
		}
	}
	return out
}

// meanStdDev returns the mean and population standard deviation of xs.
func meanStdDev(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}
