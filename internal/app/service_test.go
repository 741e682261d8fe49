package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	service "github.com/okian/coordwatch/internal/app"
	"github.com/okian/coordwatch/internal/config"
	"github.com/okian/coordwatch/internal/domain/model"
	"github.com/okian/coordwatch/internal/domain/pipeline"
	"github.com/okian/coordwatch/internal/domain/scoring"
	"github.com/okian/coordwatch/internal/domain/types"
	"github.com/okian/coordwatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// campaignBatch builds three accounts reposting one message within four minutes.
func campaignBatch(id string) model.Batch {
	b := model.Batch{BatchID: id}
	for k := 0; k < 3; k++ {
		b.Users = append(b.Users, model.UserInput{
			UserID:  fmt.Sprintf("acct-%d", k+1),
			Profile: model.ProfileInput{FollowerCount: 50, FollowingCount: 2000, AccountAgeDays: 30},
			Posts: []model.PostInput{{
				Content:   "Breaking news! Share now!",
				Timestamp: fmt.Sprintf("2024-05-14T10:%02d:00Z", 2*k),
			}},
		})
	}
	return b
}

func organicBatch(id string) model.Batch {
	return model.Batch{BatchID: id, Users: []model.UserInput{{
		UserID:  "solo",
		Profile: model.ProfileInput{FollowerCount: 120, FollowingCount: 90, AccountAgeDays: 700, Bio: "gardener"},
		Posts: []model.PostInput{
			{Content: "Planted tomatoes this morning", Timestamp: "2024-05-14T08:00:00Z"},
			{Content: "Rain again, perfect for soup", Timestamp: "2024-05-15T19:30:00Z"},
		},
	}}}
}

func startService(opts ...service.Option) *service.Service {
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func stopService(svc *service.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = svc.Stop(ctx)
}

// awaitAssessment polls until the batch leaves the pending state.
func awaitAssessment(svc *service.Service, id string) (types.Report, error) {
	deadline := time.Now().Add(5 * time.Second)
	for {
		report, err := svc.Assessment(context.Background(), id)
		if !errors.Is(err, service.ErrPending) || time.Now().After(deadline) {
			return report, err
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type failingScorer struct{}

func (failingScorer) Score(context.Context, scoring.Input) (types.CoordinationAssessment, error) {
	return types.CoordinationAssessment{}, errors.New("scorer offline")
}

// gatedContent blocks the content stage until release is closed.
type gatedContent struct{ release chan struct{} }

func (g gatedContent) Analyze(ctx context.Context, _ []model.Post) (types.ContentReport, error) {
	select {
	case <-g.release:
		return types.ContentReport{StageResult: types.Insufficient()}, nil
	case <-ctx.Done():
		return types.ContentReport{}, ctx.Err()
	}
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(8))
		defer stopService(svc)

		Convey("Then operations are refused before start", func() {
			ctx := context.Background()
			_, err := svc.Analyze(ctx, campaignBatch("b"))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Submit(ctx, campaignBatch("b"))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Assessment(ctx, "b")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("When started", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)
			stats := svc.GetStats()

			Convey("Then it reports its configuration and state", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats["queueSize"], ShouldEqual, 8)
				So(stats["queueLength"], ShouldEqual, 0)
				So(stats["storedAssessments"], ShouldEqual, 0)
			})

			Convey("And stopping marks it stopped", func() {
				stopService(svc)
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Stop(context.Background()), ShouldBeNil)
			})
		})
	})
}

func TestService_Analyze(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startService(service.WithMaxBatchUsers(5))
		defer stopService(svc)
		ctx := context.Background()

		Convey("When a coordinated batch is analyzed synchronously", func() {
			report, err := svc.Analyze(ctx, campaignBatch("sync-1"))

			Convey("Then the full report is returned and kept", func() {
				So(err, ShouldBeNil)
				So(report.BatchID, ShouldEqual, "sync-1")
				So(report.TotalUsers, ShouldEqual, 3)
				So(report.Content.TotalGroups, ShouldEqual, 1)
				So(report.Assessment.Score, ShouldAlmostEqual, 0.25)
				So(report.Assessment.RiskLevel, ShouldEqual, types.RiskMinimal)

				stored, err := svc.Assessment(ctx, "sync-1")
				So(err, ShouldBeNil)
				So(stored.Assessment.Score, ShouldEqual, report.Assessment.Score)
			})
		})

		Convey("When the batch has no id", func() {
			report, err := svc.Analyze(ctx, organicBatch(""))

			Convey("Then a random id is assigned", func() {
				So(err, ShouldBeNil)
				So(report.BatchID, ShouldNotBeEmpty)
				So(report.Assessment.RiskLevel, ShouldEqual, types.RiskMinimal)
			})
		})

		Convey("When a batch is empty", func() {
			report, err := svc.Analyze(ctx, model.Batch{BatchID: "empty"})

			Convey("Then it is a minimal assessment, not an error", func() {
				So(err, ShouldBeNil)
				So(report.Assessment.Score, ShouldEqual, 0)
				So(report.Assessment.RiskLevel, ShouldEqual, types.RiskMinimal)
			})
		})

		Convey("When a user has no id", func() {
			b := campaignBatch("bad")
			b.Users[1].UserID = ""
			_, err := svc.Analyze(ctx, b)

			Convey("Then the batch is invalid", func() {
				So(errors.Is(err, service.ErrInvalidBatch), ShouldBeTrue)
			})
		})

		Convey("When the batch has too many users", func() {
			b := model.Batch{BatchID: "big"}
			for i := 0; i < 6; i++ {
				b.Users = append(b.Users, model.UserInput{UserID: fmt.Sprintf("u%d", i)})
			}
			_, err := svc.Analyze(ctx, b)

			Convey("Then it is refused", func() {
				So(errors.Is(err, service.ErrTooManyUsers), ShouldBeTrue)
			})
		})

		Convey("When the caller's context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.Analyze(cctx, campaignBatch("cancelled"))

			Convey("Then no report is produced", func() {
				So(errors.Is(err, pipeline.ErrAnalysisAborted), ShouldBeTrue)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				_, err := svc.Assessment(ctx, "cancelled")
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startService(service.WithWorkerCount(2))
		defer stopService(svc)
		ctx := context.Background()

		Convey("When a batch is submitted", func() {
			sub, err := svc.Submit(ctx, campaignBatch("async-1"))
			So(err, ShouldBeNil)
			So(sub.Duplicate, ShouldBeFalse)
			So(sub.Users, ShouldEqual, 3)
			So(sub.Posts, ShouldEqual, 3)

			Convey("Then its assessment becomes available", func() {
				report, err := awaitAssessment(svc, "async-1")
				So(err, ShouldBeNil)
				So(report.Content.TotalGroups, ShouldEqual, 1)
			})

			Convey("And resubmitting the same id is a duplicate", func() {
				again, err := svc.Submit(ctx, campaignBatch("async-1"))
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeTrue)
			})
		})

		Convey("When batches without ids are submitted", func() {
			first, err := svc.Submit(ctx, organicBatch(""))
			So(err, ShouldBeNil)
			second, err := svc.Submit(ctx, organicBatch(""))
			So(err, ShouldBeNil)

			Convey("Then identical content maps to the same fingerprint", func() {
				So(strings.HasPrefix(first.BatchID, "fp-"), ShouldBeTrue)
				So(second.BatchID, ShouldEqual, first.BatchID)
				So(second.Duplicate, ShouldBeTrue)
			})
		})

		Convey("When an invalid batch is submitted", func() {
			b := campaignBatch("invalid-1")
			b.Users[0].UserID = " "
			_, err := svc.Submit(ctx, b)
			So(errors.Is(err, service.ErrInvalidBatch), ShouldBeTrue)

			Convey("Then its id is not burned", func() {
				sub, err := svc.Submit(ctx, campaignBatch("invalid-1"))
				So(err, ShouldBeNil)
				So(sub.Duplicate, ShouldBeFalse)
			})
		})

		Convey("When asking for an unknown batch", func() {
			_, err := svc.Assessment(ctx, "nope")

			Convey("Then it is not found", func() {
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_FailedAnalysis(t *testing.T) {
	Convey("Given a service whose scorer fails", t, func() {
		svc := startService(service.WithPipelineOptions(pipeline.WithScorer(failingScorer{})))
		defer stopService(svc)
		ctx := context.Background()

		Convey("When a batch is submitted", func() {
			_, err := svc.Submit(ctx, campaignBatch("doomed"))
			So(err, ShouldBeNil)

			Convey("Then the assessment reports the failure", func() {
				_, err := awaitAssessment(svc, "doomed")
				So(errors.Is(err, service.ErrAnalysisFailed), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "scorer offline")
			})

			Convey("And the same id may be submitted again", func() {
				_, _ = awaitAssessment(svc, "doomed")
				sub, err := svc.Submit(ctx, campaignBatch("doomed"))
				So(err, ShouldBeNil)
				So(sub.Duplicate, ShouldBeFalse)
			})
		})
	})
}

func TestService_Backpressure(t *testing.T) {
	Convey("Given a single worker stuck on a batch and a one-slot queue", t, func() {
		gate := gatedContent{release: make(chan struct{})}
		svc := startService(
			service.WithWorkerCount(1),
			service.WithQueueSize(1),
			service.WithPipelineOptions(pipeline.WithContentAnalyzer(gate)),
		)
		defer stopService(svc)
		ctx := context.Background()

		Convey("When more batches arrive than fit", func() {
			var rejected string
			for i := 0; i < 5 && rejected == ""; i++ {
				id := fmt.Sprintf("flood-%d", i)
				if _, err := svc.Submit(ctx, organicBatch(id)); err != nil {
					So(errors.Is(err, service.ErrQueueFull), ShouldBeTrue)
					rejected = id
				}
			}

			Convey("Then the overflow is refused and can be retried later", func() {
				So(rejected, ShouldNotBeEmpty)
				_, err := svc.Assessment(ctx, rejected)
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)

				close(gate.release)
				_, err = awaitAssessment(svc, "flood-0")
				So(err, ShouldBeNil)

				deadline := time.Now().Add(5 * time.Second)
				var sub service.Submission
				for time.Now().Before(deadline) {
					if sub, err = svc.Submit(ctx, organicBatch(rejected)); err == nil {
						break
					}
					time.Sleep(5 * time.Millisecond)
				}
				So(err, ShouldBeNil)
				So(sub.Duplicate, ShouldBeFalse)
			})
		})
	})
}

func TestFingerprint(t *testing.T) {
	Convey("Given two batches", t, func() {
		a := campaignBatch("")
		b := campaignBatch("")
		b.Users[0].Posts[0].Content = "Different text"

		Convey("Then the fingerprint depends on content only", func() {
			So(service.Fingerprint(a), ShouldEqual, service.Fingerprint(campaignBatch("other-id")))
			So(service.Fingerprint(a), ShouldNotEqual, service.Fingerprint(b))
			So(service.Fingerprint(a), ShouldHaveLength, len("fp-")+32)
		})
	})
}

func TestFromConfig(t *testing.T) {
	Convey("Given a loaded configuration", t, func() {
		cfg := config.New()
		cfg.WorkerCount = 3
		cfg.QueueSize = 7
		cfg.MaxBatchUsers = 2

		Convey("When a service is built from it", func() {
			svc := service.New(service.FromConfig(cfg, service.WithQueueSize(9))...)
			stats := svc.GetStats()

			Convey("Then the sizes follow the configuration and extra options win", func() {
				So(stats["workerCount"], ShouldEqual, 3)
				So(stats["queueSize"], ShouldEqual, 9)
				So(stats["maxBatchUsers"], ShouldEqual, 2)
			})

			Convey("Then the user limit is enforced", func() {
				ctx := context.Background()
				So(svc.Start(ctx), ShouldBeNil)
				defer func() { _ = svc.Stop(ctx) }()

				_, err := svc.Analyze(ctx, campaignBatch("cfg-1"))
				So(err, ShouldWrap, service.ErrTooManyUsers)
			})
		})

		Convey("When it lists its own promotional phrases", func() {
			cfg.PromoPhrases = []string{"Gardener"}
			svc := service.New(service.FromConfig(cfg)...)
			ctx := context.Background()
			So(svc.Start(ctx), ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			report, err := svc.Analyze(ctx, organicBatch("cfg-promo"))

			Convey("Then the behavior stage uses them", func() {
				So(err, ShouldBeNil)
				So(report.Behavior.Records, ShouldHaveLength, 1)
				So(report.Behavior.Records[0].Flags, ShouldResemble, []string{`Generic promotional bio: "gardener"`})
			})
		})
	})
}
