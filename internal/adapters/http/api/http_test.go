package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/coordwatch/internal/adapters/http/api"
	"github.com/okian/coordwatch/internal/domain/model"
	"github.com/okian/coordwatch/internal/domain/pipeline"
	"github.com/okian/coordwatch/internal/domain/types"
	"github.com/okian/coordwatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDependencies records calls and returns canned results.
type mockDependencies struct {
	analyzed   []model.Batch
	submitted  []model.Batch
	analyzeErr error
	submitErr  error
	duplicate  bool
	reports    map[string]types.Report
	lookupErr  error
}

func (m *mockDependencies) Analyze(_ context.Context, b model.Batch) (types.Report, error) {
	m.analyzed = append(m.analyzed, b)
	if m.analyzeErr != nil {
		return types.Report{}, m.analyzeErr
	}
	return types.Report{
		BatchID:    b.BatchID,
		TotalUsers: len(b.Users),
		Assessment: types.CoordinationAssessment{RiskLevel: types.RiskMinimal, Evidence: []string{}},
	}, nil
}

func (m *mockDependencies) Submit(_ context.Context, b model.Batch) (types.Submission, error) {
	m.submitted = append(m.submitted, b)
	if m.submitErr != nil {
		return types.Submission{}, m.submitErr
	}
	id := b.BatchID
	if id == "" {
		id = "fp-generated"
	}
	return types.Submission{BatchID: id, Duplicate: m.duplicate, Users: len(b.Users), Posts: b.PostCount()}, nil
}

func (m *mockDependencies) Assessment(_ context.Context, id string) (types.Report, error) {
	if m.lookupErr != nil {
		return types.Report{}, m.lookupErr
	}
	r, ok := m.reports[id]
	if !ok {
		return types.Report{}, fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}
	return r, nil
}

type mockStatsProvider struct{}

func (mockStatsProvider) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "queueLength": 3}
}

const batchBody = `{"batch_id":"b-1","users":[{"user_id":"u1","profile":{"follower_count":5},"posts":[{"content":"hi","timestamp":"2024-05-01T00:00:00Z"}]}]}`

func newMux(deps *mockDependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, mockStatsProvider{}, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var out map[string]string
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestAnalyzeHandler(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When a valid batch is posted", func() {
			w := do(mux, http.MethodPost, "/analyze", batchBody)

			Convey("Then the report is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
				var report types.Report
				So(json.Unmarshal(w.Body.Bytes(), &report), ShouldBeNil)
				So(report.BatchID, ShouldEqual, "b-1")
				So(report.TotalUsers, ShouldEqual, 1)
				So(deps.analyzed[0].Users[0].Posts[0].Content, ShouldEqual, "hi")
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/analyze", "{not json")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
				So(deps.analyzed, ShouldBeEmpty)
			})
		})

		Convey("When the service rejects the batch", func() {
			deps.analyzeErr = fmt.Errorf("%w: user #0: user id is required", types.ErrInvalidBatch)
			w := do(mux, http.MethodPost, "/analyze", batchBody)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["message"], ShouldContainSubstring, "user id is required")
			})
		})

		Convey("When the batch has too many users", func() {
			deps.analyzeErr = types.ErrTooManyUsers
			w := do(mux, http.MethodPost, "/analyze", batchBody)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the analysis is aborted", func() {
			deps.analyzeErr = fmt.Errorf("%w: %w", pipeline.ErrAnalysisAborted, context.DeadlineExceeded)
			w := do(mux, http.MethodPost, "/analyze", batchBody)

			Convey("Then the service is unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decodeError(w)["code"], ShouldEqual, "analysis_aborted")
			})
		})

		Convey("When the analysis fails unexpectedly", func() {
			deps.analyzeErr = errors.New("boom")
			w := do(mux, http.MethodPost, "/analyze", batchBody)

			Convey("Then it is an internal error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When the method is wrong", func() {
			w := do(mux, http.MethodGet, "/analyze", "")

			Convey("Then the route refuses it", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})

	Convey("Given a server with a tiny body limit", t, func() {
		mux := newMux(&mockDependencies{}, api.WithMaxBodyBytes(16))

		Convey("When a larger body is posted", func() {
			w := do(mux, http.MethodPost, "/analyze", batchBody)

			Convey("Then it is refused as too large", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			})
		})
	})
}

func TestBatchesHandler(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When a new batch is submitted", func() {
			w := do(mux, http.MethodPost, "/batches", batchBody)

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Header().Get("Location"), ShouldEqual, "/assessments/b-1")
				var ack map[string]interface{}
				So(json.Unmarshal(w.Body.Bytes(), &ack), ShouldBeNil)
				So(ack["status"], ShouldEqual, "accepted")
				So(ack["duplicate"], ShouldEqual, false)
				So(ack["posts"], ShouldEqual, 1)
			})
		})

		Convey("When the batch has no id", func() {
			w := do(mux, http.MethodPost, "/batches", `{"users":[]}`)

			Convey("Then the assigned id is reported", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"batch_id":"fp-generated"`)
			})
		})

		Convey("When the batch was seen before", func() {
			deps.duplicate = true
			w := do(mux, http.MethodPost, "/batches", batchBody)

			Convey("Then it is acknowledged as duplicate", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"duplicate"`)
			})
		})

		Convey("When the queue is full", func() {
			deps.submitErr = fmt.Errorf("%w: batch %q", types.ErrQueueFull, "b-1")
			w := do(mux, http.MethodPost, "/batches", batchBody)

			Convey("Then backpressure is signalled", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decodeError(w)["code"], ShouldEqual, "backpressure")
			})
		})

		Convey("When the body is malformed", func() {
			w := do(mux, http.MethodPost, "/batches", `{"users": 7}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.submitted, ShouldBeEmpty)
			})
		})
	})
}

func TestAssessmentHandler(t *testing.T) {
	Convey("Given an API server with one stored report", t, func() {
		deps := &mockDependencies{reports: map[string]types.Report{
			"done": {BatchID: "done", Assessment: types.CoordinationAssessment{Score: 0.7, RiskLevel: types.RiskMedium}},
		}}
		mux := newMux(deps)

		Convey("When the report is requested", func() {
			w := do(mux, http.MethodGet, "/assessments/done", "")

			Convey("Then it is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"risk_level":"MEDIUM"`)
			})
		})

		Convey("When an unknown id is requested", func() {
			w := do(mux, http.MethodGet, "/assessments/nope", "")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(w)["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When the batch is still queued", func() {
			deps.lookupErr = fmt.Errorf("%w: q", types.ErrPending)
			w := do(mux, http.MethodGet, "/assessments/q", "")

			Convey("Then it answers accepted with a pending status", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"status":"pending"`)
			})
		})

		Convey("When the batch failed", func() {
			deps.lookupErr = fmt.Errorf("%w: scorer offline", types.ErrAnalysisFailed)
			w := do(mux, http.MethodGet, "/assessments/f", "")

			Convey("Then the failure is reported", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"failed"`)
				So(w.Body.String(), ShouldContainSubstring, "scorer offline")
			})
		})
	})
}

func TestStatsAndHealth(t *testing.T) {
	Convey("Given an API server", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("When stats are requested", func() {
			w := do(mux, http.MethodGet, "/stats", "")

			Convey("Then the provider output is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"queueLength":3`)
			})
		})

		Convey("When health is requested", func() {
			_ = do(mux, http.MethodGet, "/stats", "")
			w := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then Prometheus metrics are served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "coordwatch_analysis_http_requests_total")
			})
		})
	})
}

func TestErrorKinds(t *testing.T) {
	Convey("Given kinded errors", t, func() {
		cause := errors.New("disk on fire")

		Convey("Then kinds and causes are both visible to errors.Is", func() {
			err := api.WrapKind("op", api.ErrBackpressure, cause)
			So(errors.Is(err, api.ErrBackpressure), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "op: backpressure: disk on fire")
		})

		Convey("And Wrap keeps the inner kind", func() {
			err := api.Wrap("outer", api.NewKind("inner", api.ErrNotFound))
			So(errors.Is(err, api.ErrNotFound), ShouldBeTrue)
			So(err.Error(), ShouldStartWith, "outer: ")
		})

		Convey("And nil stays nil", func() {
			So(api.WrapKind("op", api.ErrInternal, nil), ShouldBeNil)
			So(api.Wrap("op", nil), ShouldBeNil)
		})
	})
}

func TestInstrumentation(t *testing.T) {
	Convey("Given an API server", t, func() {
		mux := newMux(&mockDependencies{submitErr: types.ErrQueueFull}, api.WithMaxBodyBytes(1<<20))

		Convey("When a request carries no id", func() {
			w := do(mux, http.MethodGet, "/stats", "")

			Convey("Then one is generated", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldHaveLength, 36)
			})
		})

		Convey("When a request carries its own id", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "req-42")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is echoed back", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "req-42")
			})
		})

		Convey("When stats are requested", func() {
			w := do(mux, http.MethodGet, "/stats", "")

			Convey("Then the API settings are added to the service stats", func() {
				var out map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
				So(out["maxBodyBytes"], ShouldEqual, float64(1<<20))
				So(out, ShouldContainKey, "uptimeSeconds")
				So(out["queueLength"], ShouldEqual, float64(3))
			})
		})

		Convey("When a submission is refused", func() {
			w := do(mux, http.MethodPost, "/batches", batchBody)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			metricsBody := do(mux, http.MethodGet, "/healthz", "").Body.String()

			Convey("Then the error is counted under its code", func() {
				So(metricsBody, ShouldContainSubstring, `error_type="backpressure"`)
				So(metricsBody, ShouldContainSubstring, `endpoint="batches"`)
			})
		})
	})
}
