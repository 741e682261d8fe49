package behavior_test

import (
	"context"
	"testing"

	"github.com/okian/coordwatch/internal/domain/behavior"
	"github.com/okian/coordwatch/internal/domain/model"
	"github.com/okian/coordwatch/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAnalyzer_Score(t *testing.T) {
	Convey("Given a behavior analyzer with defaults", t, func() {
		a := behavior.New()

		Convey("When an account follows forty times more than follow it", func() {
			rec := a.Score(&model.UserProfile{
				UserID: "a1", FollowerCount: 50, FollowingCount: 2000, AccountAgeDays: 30, PostCount: 1,
			})

			Convey("Then the follow ratio and empty bio flags fire", func() {
				So(rec.FollowRatio, ShouldEqual, 40.0)
				So(rec.Score, ShouldAlmostEqual, 0.3)
				So(rec.Flags, ShouldHaveLength, 2)
				So(rec.Flags[0], ShouldStartWith, "Suspicious follow ratio")
				So(rec.Flags[1], ShouldEqual, "Empty profile bio")
			})
		})

		Convey("When posting rates cross each threshold", func() {
			extreme := a.Score(&model.UserProfile{UserID: "x", AccountAgeDays: 1, PostCount: 51, Bio: "hi"})
			high := a.Score(&model.UserProfile{UserID: "y", AccountAgeDays: 1, PostCount: 21, Bio: "hi"})
			edge := a.Score(&model.UserProfile{UserID: "z", AccountAgeDays: 1, PostCount: 20, Bio: "hi"})

			Convey("Then the higher threshold wins and the lower is exclusive", func() {
				So(extreme.Score, ShouldAlmostEqual, 0.3)
				So(high.Score, ShouldAlmostEqual, 0.2)
				So(edge.Score, ShouldEqual, 0.0)
				So(edge.Flags, ShouldBeEmpty)
			})
		})

		Convey("When the account age is zero", func() {
			rec := a.Score(&model.UserProfile{UserID: "x", AccountAgeDays: 0, PostCount: 10, Bio: "hi"})

			Convey("Then it is treated as one day", func() {
				So(rec.AccountAgeDays, ShouldEqual, 1)
				So(rec.PostsPerDay, ShouldEqual, 10.0)
			})
		})

		Convey("When the account has no followers", func() {
			rec := a.Score(&model.UserProfile{UserID: "x", AccountAgeDays: 100, FollowingCount: 11, Bio: "hi"})

			Convey("Then the ratio divides by one", func() {
				So(rec.FollowRatio, ShouldEqual, 11.0)
				So(rec.Score, ShouldAlmostEqual, 0.2)
			})
		})

		Convey("When the bio is promotional", func() {
			rec := a.Score(&model.UserProfile{UserID: "x", AccountAgeDays: 100, Bio: "Crypto INVESTMENT tips, DM for promo"})

			Convey("Then only one bio flag applies", func() {
				So(rec.Score, ShouldAlmostEqual, 0.15)
				So(rec.Flags, ShouldHaveLength, 1)
				So(rec.Flags[0], ShouldContainSubstring, "promotional")
			})
		})

		Convey("When the bio holds only whitespace", func() {
			rec := a.Score(&model.UserProfile{UserID: "x", AccountAgeDays: 100, Bio: "   "})

			Convey("Then it is not treated as empty", func() {
				So(rec.Score, ShouldEqual, 0.0)
				So(rec.Flags, ShouldBeEmpty)
			})
		})

		Convey("When an account triggers every flag it can", func() {
			rec := a.Score(&model.UserProfile{
				UserID: "x", AccountAgeDays: 2, PostCount: 500, FollowerCount: 1, FollowingCount: 5000,
			})

			Convey("Then the score stays in [0,1]", func() {
				So(rec.RawScore, ShouldAlmostEqual, 0.85)
				So(rec.Score, ShouldBeBetweenOrEqual, 0.0, 1.0)
				So(rec.Flags, ShouldHaveLength, 4)
			})
		})
	})
}

func TestAnalyzer_Analyze(t *testing.T) {
	Convey("Given profiles of a bot and an organic user", t, func() {
		profiles := []model.UserProfile{
			{UserID: "bot", Username: "bot", AccountAgeDays: 2, PostCount: 500, FollowerCount: 1, FollowingCount: 5000},
			{UserID: "human", Username: "human", AccountAgeDays: 900, PostCount: 40, FollowerCount: 300, FollowingCount: 200, Bio: "runner, cook"},
		}

		Convey("When analyzed with defaults", func() {
			report, err := behavior.New().Analyze(context.Background(), profiles)

			Convey("Then only the bot is suspicious with its top three flags", func() {
				So(err, ShouldBeNil)
				So(report.Status, ShouldEqual, types.StatusAnalyzed)
				So(report.TotalUsers, ShouldEqual, 2)
				So(report.TotalSuspicious, ShouldEqual, 1)
				So(report.SuspiciousUsers[0].UserID, ShouldEqual, "bot")
				So(report.SuspiciousUsers[0].PrimaryFlags, ShouldHaveLength, 3)
				So(report.SuspiciousUsers[0].PostCount, ShouldEqual, 500)
				So(report.Records, ShouldHaveLength, 2)
				So(report.Records[1].UserID, ShouldEqual, "human")
			})
		})

		Convey("When the suspicious threshold is raised", func() {
			report, err := behavior.New(behavior.WithSuspiciousScore(0.9)).Analyze(context.Background(), profiles)

			Convey("Then nobody is suspicious", func() {
				So(err, ShouldBeNil)
				So(report.TotalSuspicious, ShouldEqual, 0)
			})
		})

		Convey("When there are no profiles", func() {
			report, err := behavior.New().Analyze(context.Background(), nil)

			Convey("Then the report is empty but analyzed", func() {
				So(err, ShouldBeNil)
				So(report.Status, ShouldEqual, types.StatusAnalyzed)
				So(report.SuspiciousUsers, ShouldBeEmpty)
			})
		})
	})
}

func TestAnalyzer_PromoPhrases(t *testing.T) {
	Convey("Given an analyzer with custom promotional phrases", t, func() {
		a := behavior.New(behavior.WithPromoPhrases("Link In Bio", "FREE GIVEAWAY"))

		Convey("When a bio contains one of them in another case", func() {
			rec := a.Score(&model.UserProfile{UserID: "x", AccountAgeDays: 100, Bio: "Daily memes, link in bio"})

			Convey("Then the promotional flag fires with the phrase", func() {
				So(rec.Score, ShouldAlmostEqual, 0.15)
				So(rec.Flags, ShouldResemble, []string{`Generic promotional bio: "link in bio"`})
			})
		})

		Convey("When a bio only matches the built in list", func() {
			rec := a.Score(&model.UserProfile{UserID: "x", AccountAgeDays: 100, Bio: "crypto investment"})

			Convey("Then the built in list is replaced", func() {
				So(rec.Flags, ShouldBeEmpty)
			})
		})

		Convey("When no phrases are given", func() {
			rec := behavior.New(behavior.WithPromoPhrases()).Score(&model.UserProfile{UserID: "x", AccountAgeDays: 100, Bio: "crypto"})

			Convey("Then the built in list is kept", func() {
				So(rec.Flags, ShouldHaveLength, 1)
			})
		})
	})
}
