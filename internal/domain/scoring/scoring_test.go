package scoring_test

import (
	"context"
	"testing"

	"github.com/okian/coordwatch/internal/domain/scoring"
	"github.com/okian/coordwatch/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

var ok = types.StageResult{Status: types.StatusAnalyzed}

func scenarioInput() scoring.Input {
	return scoring.Input{
		Content:  types.ContentReport{StageResult: ok, TotalGroups: 1},
		Temporal: types.TemporalReport{StageResult: ok, ClusterCount: 1},
		Behavior: types.BehaviorReport{StageResult: ok, TotalUsers: 3},
		Network:  types.NetworkReport{StageResult: ok, ComponentCount: 1},
	}
}

func TestFusionScorer_Score(t *testing.T) {
	Convey("Given a fusion scorer with default weights", t, func() {
		scorer, err := scoring.New()
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When no stage produced output", func() {
			a, err := scorer.Score(ctx, scoring.Input{})

			Convey("Then the assessment is minimal with no evidence", func() {
				So(err, ShouldBeNil)
				So(a.Score, ShouldEqual, 0.0)
				So(a.RiskLevel, ShouldEqual, types.RiskMinimal)
				So(a.Confidence, ShouldAlmostEqual, 0.1)
				So(a.Evidence, ShouldNotBeNil)
				So(a.Evidence, ShouldBeEmpty)
				So(a.Recommendation, ShouldStartWith, "No action required")
				So(a.Signals, ShouldHaveLength, 4)
			})
		})

		Convey("When one group, one burst and one component are found with no suspicious users", func() {
			a, err := scorer.Score(ctx, scenarioInput())

			Convey("Then each signal contributes its weighted share", func() {
				So(err, ShouldBeNil)
				So(a.Score, ShouldAlmostEqual, 0.1+0.05+0.1)
				So(a.RiskLevel, ShouldEqual, types.RiskMinimal)
				So(a.Evidence, ShouldResemble, []string{
					"1 groups posting similar content",
					"1 coordinated posting time periods",
					"1 suspicious network clusters",
				})
			})
		})

		Convey("When every signal saturates", func() {
			in := scoring.Input{
				Content:  types.ContentReport{StageResult: ok, TotalGroups: 7},
				Temporal: types.TemporalReport{StageResult: ok, ClusterCount: 3, RegularPosters: make([]types.RegularPoster, 4)},
				Behavior: types.BehaviorReport{StageResult: ok, TotalUsers: 4, TotalSuspicious: 4},
				Network:  types.NetworkReport{StageResult: ok, ComponentCount: 9},
			}
			a, err := scorer.Score(ctx, in)

			Convey("Then the score is capped at one and risk is high", func() {
				So(err, ShouldBeNil)
				So(a.Score, ShouldAlmostEqual, 1.0)
				So(a.RiskLevel, ShouldEqual, types.RiskHigh)
				So(a.Confidence, ShouldEqual, 1.0)
				So(a.Evidence, ShouldContain, "4 users with automated posting patterns")
				So(a.Evidence, ShouldContain, "4 users with bot-like behavior")
			})
		})

		Convey("When a stage failed", func() {
			in := scenarioInput()
			in.Content.StageResult = types.Failed("boom")
			a, err := scorer.Score(ctx, in)

			Convey("Then it contributes zero and weights are not rescaled", func() {
				So(err, ShouldBeNil)
				So(a.Score, ShouldAlmostEqual, 0.05+0.1)
				So(a.Signals[0].Weighted, ShouldEqual, 0.0)
				So(a.Signals[0].Weight, ShouldEqual, 0.3)
			})
		})

		Convey("When the same input is scored twice", func() {
			first, _ := scorer.Score(ctx, scenarioInput())
			second, _ := scorer.Score(ctx, scenarioInput())

			Convey("Then the assessments are identical", func() {
				So(second, ShouldResemble, first)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := scorer.Score(cctx, scenarioInput())

			Convey("Then it returns the context error", func() {
				So(err, ShouldWrap, context.Canceled)
			})
		})
	})
}

func TestThresholds_Level(t *testing.T) {
	Convey("Risk levels use exclusive lower bounds", t, func() {
		th := scoring.DefaultThresholds
		So(th.Level(0.0), ShouldEqual, types.RiskMinimal)
		So(th.Level(0.4), ShouldEqual, types.RiskMinimal)
		So(th.Level(0.41), ShouldEqual, types.RiskLow)
		So(th.Level(0.6), ShouldEqual, types.RiskLow)
		So(th.Level(0.61), ShouldEqual, types.RiskMedium)
		So(th.Level(0.8), ShouldEqual, types.RiskMedium)
		So(th.Level(0.81), ShouldEqual, types.RiskHigh)
	})

	Convey("Every risk level has a recommendation", t, func() {
		for _, level := range types.RiskLevels {
			So(level.Recommendation(), ShouldNotBeEmpty)
			So(level.Summary(), ShouldNotBeEmpty)
		}
		So(types.RiskHigh.Recommendation(), ShouldStartWith, "Immediate investigation recommended")
		So(types.RiskMedium.Recommendation(), ShouldStartWith, "Enhanced monitoring recommended")
		So(types.RiskLow.Recommendation(), ShouldStartWith, "Continued observation suggested")
		So(types.RiskMinimal.Recommendation(), ShouldStartWith, "No action required")
	})
}

func TestNew_Options(t *testing.T) {
	Convey("Given custom scorer options", t, func() {
		Convey("When weights come from config", func() {
			s, err := scoring.New(scoring.WithWeightsFromConfig(map[string]float64{
				"content": 0.4, "temporal": 0.2, "behavior": 0.2, "network": 0.2,
			}))

			Convey("Then they are used", func() {
				So(err, ShouldBeNil)
				So(s.Weights().Content, ShouldEqual, 0.4)
			})
		})

		Convey("When weights do not sum to one", func() {
			_, err := scoring.New(scoring.WithWeights(scoring.Weights{Content: 0.5, Temporal: 0.5, Behavior: 0.5}))

			Convey("Then construction fails", func() {
				So(err, ShouldWrap, scoring.ErrInvalidWeights)
			})
		})

		Convey("When thresholds are out of order", func() {
			_, err := scoring.New(scoring.WithRiskThresholds(0.7, 0.5, 0.9))

			Convey("Then construction fails", func() {
				So(err, ShouldWrap, scoring.ErrInvalidThresholds)
			})
		})

		Convey("When thresholds are lowered", func() {
			s, err := scoring.New(scoring.WithRiskThresholds(0.2, 0.5, 0.9))
			So(err, ShouldBeNil)
			a, err := s.Score(context.Background(), scenarioInput())

			Convey("Then the same score reaches a higher level", func() {
				So(err, ShouldBeNil)
				So(a.RiskLevel, ShouldEqual, types.RiskLow)
			})
		})
	})
}
