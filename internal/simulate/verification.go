package simulate

import (
	"context"
	"fmt"

	"github.com/okian/coordwatch/internal/domain/types"
	"github.com/okian/coordwatch/pkg/logger"
)

// Expected returns the lowest acceptable level for a kind and whether the
// level is also the highest acceptable one.
func Expected(kind Kind) (types.RiskLevel, bool) {
	if kind == KindCampaign {
		return types.RiskLow, false
	}
	return types.RiskMinimal, true
}

// Matches reports whether an outcome agrees with the kind of its batch.
func Matches(o Outcome) bool {
	if o.Err != "" {
		return false
	}
	floor, exact := Expected(o.Kind)
	if exact {
		return o.RiskLevel == floor
	}
	return o.RiskLevel.AtLeast(floor)
}

// verifyOutcomes counts mismatched verdicts and logs each of them.
func verifyOutcomes(ctx context.Context, cfg *Config, outcomes []Outcome, stats *Stats) error {
	log := logger.Get().Named("simulate")
	for _, o := range outcomes {
		if o.Err != "" {
			continue
		}
		if Matches(o) {
			if cfg.Verbose {
				log.Info(ctx, "verdict",
					logger.String("batchID", o.BatchID),
					logger.String("kind", string(o.Kind)),
					logger.String("risk", string(o.RiskLevel)),
					logger.Float64("score", o.Score))
			}
			continue
		}
		stats.Mismatches++
		floor, _ := Expected(o.Kind)
		log.Warn(ctx, "unexpected verdict",
			logger.String("batchID", o.BatchID),
			logger.String("kind", string(o.Kind)),
			logger.String("expected", string(floor)),
			logger.String("risk", string(o.RiskLevel)),
			logger.Float64("score", o.Score))
	}

	if stats.Mismatches > 0 {
		return fmt.Errorf("%w: %d of %d batches", ErrMismatch, stats.Mismatches, len(outcomes))
	}
	return nil
}
