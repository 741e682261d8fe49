// Package behavior scores individual accounts for bot-like activity.
package behavior

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/coordwatch/internal/domain/model"
	"github.com/okian/coordwatch/internal/domain/types"
)

// Default analyzer configuration constants.
const (
	DefaultSuspiciousScore = 0.5
	maxEvidenceFlags       = 3

	extremeRatePerDay = 50
	highRatePerDay    = 20
	followRatioLimit  = 10
	newAccountDays    = 30
	newAccountPosts   = 100

	weightExtremeRate = 0.3
	weightHighRate    = 0.2
	weightFollowRatio = 0.2
	weightNewAccount  = 0.25
	weightEmptyBio    = 0.1
	weightPromoBio    = 0.15

	method = "multi_factor_behavior_analysis"
)

// DefaultPromoPhrases are bio fragments typical of promotional accounts.
var DefaultPromoPhrases = []string{"follow me", "dm for promo", "crypto", "investment"}

// Analyzer scores each profile independently.
type Analyzer struct {
	suspiciousScore float64
	promoPhrases    []string
}

// New creates a behavior analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		suspiciousScore: DefaultSuspiciousScore,
		promoPhrases:    DefaultPromoPhrases,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze returns one record per profile, in profile order. PostCount on
// each profile is the number of posts stored for that user.
func (a *Analyzer) Analyze(ctx context.Context, profiles []model.UserProfile) (types.BehaviorReport, error) {
	report := types.BehaviorReport{
		StageResult:     types.StageResult{Status: types.StatusAnalyzed, Method: method},
		SuspiciousUsers: []types.SuspiciousUser{},
		Records:         make([]types.BehaviorRecord, 0, len(profiles)),
		TotalUsers:      len(profiles),
	}
	for i := range profiles {
		if err := ctx.Err(); err != nil {
			return types.BehaviorReport{}, fmt.Errorf("user behaviors: %w", err)
		}
		p := &profiles[i]
		rec := a.Score(p)
		report.Records = append(report.Records, rec)
		if rec.Score > a.suspiciousScore {
			report.SuspiciousUsers = append(report.SuspiciousUsers, types.SuspiciousUser{
				UserID:       p.UserID,
				Username:     p.Username,
				Score:        rec.Score,
				PrimaryFlags: topFlags(rec.Flags),
				PostCount:    p.PostCount,
			})
		}
	}
	report.TotalSuspicious = len(report.SuspiciousUsers)
	return report, nil
}

// Score computes the behavior record of a single profile.
func (a *Analyzer) Score(p *model.UserProfile) types.BehaviorRecord {
	age := max(1, p.AccountAgeDays)
	postsPerDay := float64(p.PostCount) / float64(age)
	followRatio := float64(p.FollowingCount) / float64(max(1, p.FollowerCount))

	var score float64
	flags := []string{}

	switch {
	case postsPerDay > extremeRatePerDay:
		score += weightExtremeRate
		flags = append(flags, fmt.Sprintf("Extremely high posting rate: %.1f posts/day", postsPerDay))
	case postsPerDay > highRatePerDay:
		score += weightHighRate
		flags = append(flags, fmt.Sprintf("High posting rate: %.1f posts/day", postsPerDay))
	}

	if followRatio > followRatioLimit {
		score += weightFollowRatio
		flags = append(flags, fmt.Sprintf("Suspicious follow ratio: %.1f", followRatio))
	}

	if age < newAccountDays && p.PostCount > newAccountPosts {
		score += weightNewAccount
		flags = append(flags, "New account with high activity")
	}

	// Only a bio with no characters at all counts as empty.
	if p.Bio == "" {
		score += weightEmptyBio
		flags = append(flags, "Empty profile bio")
	} else if phrase, ok := a.promoPhrase(strings.ToLower(p.Bio)); ok {
		score += weightPromoBio
		flags = append(flags, fmt.Sprintf("Generic promotional bio: %q", phrase))
	}

	return types.BehaviorRecord{
		UserID:         p.UserID,
		RawScore:       score,
		Score:          clamp01(score),
		Flags:          flags,
		PostsPerDay:    postsPerDay,
		FollowRatio:    followRatio,
		AccountAgeDays: age,
	}
}

func (a *Analyzer) promoPhrase(bio string) (string, bool) {
	for _, phrase := range a.promoPhrases {
		if strings.Contains(bio, phrase) {
			return phrase, true
		}
	}
	return "", false
}

func topFlags(flags []string) []string {
	n := min(len(flags), maxEvidenceFlags)
	out := make([]string, n)
	copy(out, flags[:n])
	return out
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
