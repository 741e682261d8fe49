package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/coordwatch/pkg/logger"
	"github.com/okian/coordwatch/pkg/metrics"
)

// RequestIDHeader carries the request id. A caller supplied id is echoed back.
const RequestIDHeader = "X-Request-Id"

// Error codes written in error bodies and used as metric labels.
const (
	codeBadRequest      = "bad_request"
	codeTooLarge        = "too_large"
	codeBackpressure    = "backpressure"
	codeNotFound        = "not_found"
	codeAnalysisAborted = "analysis_aborted"
	codeInternal        = "internal_error"
	codeUnknown         = "unknown"
)

// instrument records request metrics for endpoint and logs server side failures.
func instrument(endpoint string, log logger.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		took := time.Since(start)
		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, float64(took.Milliseconds()))

		if rec.status < http.StatusBadRequest {
			return
		}
		code := rec.code
		if code == "" {
			code = codeUnknown
		}
		metrics.RecordErrorByEndpoint(endpoint, r.Method, code)
		metrics.RecordErrorByType(code, severity(code))

		if rec.status >= http.StatusInternalServerError {
			log.Error(r.Context(), "request failed",
				logger.String("endpoint", endpoint),
				logger.String("requestID", id),
				logger.Int("status", rec.status),
				logger.String("code", code),
				logger.Duration("took", took))
		}
	}
}

func severity(code string) string {
	switch code {
	case codeInternal, codeAnalysisAborted:
		return "high"
	case codeBackpressure, codeTooLarge:
		return "medium"
	}
	return "low"
}

// statusRecorder keeps the status and error code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	code   string
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// tag is called by writeError before the header is written.
func (r *statusRecorder) tag(code string) { r.code = code }

type errorTagger interface{ tag(code string) }
