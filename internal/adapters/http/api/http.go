// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/coordwatch/internal/domain/model"
	"github.com/okian/coordwatch/internal/domain/pipeline"
	"github.com/okian/coordwatch/internal/domain/types"
	"github.com/okian/coordwatch/pkg/logger"
)

// DefaultMaxBodyBytes bounds a request body when no limit is configured.
const DefaultMaxBodyBytes = 32 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Analyze runs a batch synchronously.
	Analyze(ctx context.Context, batch model.Batch) (types.Report, error)

	// Submit queues a batch. Returns types.ErrQueueFull on backpressure.
	Submit(ctx context.Context, batch model.Batch) (types.Submission, error)

	// Assessment returns a finished report by batch id.
	Assessment(ctx context.Context, batchID string) (types.Report, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	analyzeHandler    *AnalyzeHandler
	batchesHandler    *BatchesHandler
	assessmentHandler *AssessmentHandler
	logger            logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxBodyBytes int64
	logger       logger.Logger
}

// WithMaxBodyBytes bounds the size of request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger used by the handlers.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := serverConfig{maxBodyBytes: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("api")
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider, cfg.maxBodyBytes),
		analyzeHandler:    NewAnalyzeHandler(deps, cfg.maxBodyBytes, cfg.logger),
		batchesHandler:    NewBatchesHandler(deps, cfg.maxBodyBytes, cfg.logger),
		assessmentHandler: NewAssessmentHandler(deps),
		logger:            cfg.logger,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", instrument("healthz", s.logger, s.healthHandler.HandleHealth))
	mux.HandleFunc("GET /stats", instrument("stats", s.logger, s.statsHandler.HandleStats))
	mux.HandleFunc("POST /analyze", instrument("analyze", s.logger, s.analyzeHandler.HandleAnalyze))
	mux.HandleFunc("POST /batches", instrument("batches", s.logger, s.batchesHandler.HandleSubmit))
	mux.HandleFunc("GET /assessments/{batch_id}", instrument("assessments", s.logger, s.assessmentHandler.HandleGetAssessment))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	if t, ok := w.(errorTagger); ok {
		t.tag(code)
	}
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeBatch reads a batch body of at most limit bytes.
func decodeBatch(w http.ResponseWriter, r *http.Request, op string, limit int64) (model.Batch, error) {
	var batch model.Batch
	body := http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(body).Decode(&batch); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return batch, WrapKind(op, ErrTooLarge, err)
		}
		return batch, WrapKind(op, ErrBadRequest, err)
	}
	return batch, nil
}

// classify maps an error to its API kind.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, types.ErrInvalidBatch), errors.Is(err, types.ErrTooManyUsers):
		return WrapKind(op, ErrBadRequest, err)
	case errors.Is(err, types.ErrQueueFull):
		return WrapKind(op, ErrBackpressure, err)
	case errors.Is(err, types.ErrNotFound):
		return WrapKind(op, ErrNotFound, err)
	case errors.Is(err, types.ErrPending):
		return WrapKind(op, ErrPending, err)
	case errors.Is(err, pipeline.ErrAnalysisAborted):
		return WrapKind(op, ErrUnavailable, err)
	}
	return Wrap(op, err)
}

// respondError writes err with the status of its kind.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
	case errors.Is(err, ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge, err)
	case errors.Is(err, ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, codeBackpressure, err)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err)
	case errors.Is(err, ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, codeAnalysisAborted, err)
	default:
		writeError(w, http.StatusInternalServerError, codeInternal, err)
	}
}
