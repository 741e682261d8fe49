package api

import (
	"context"
	"net/http"

	"github.com/okian/coordwatch/internal/domain/model"
	"github.com/okian/coordwatch/internal/domain/types"
	"github.com/okian/coordwatch/pkg/logger"
)

// AnalyzeDependencies defines the interface for synchronous analysis.
type AnalyzeDependencies interface {
	Analyze(ctx context.Context, batch model.Batch) (types.Report, error)
}

// AnalyzeHandler handles synchronous analysis requests.
type AnalyzeHandler struct {
	deps         AnalyzeDependencies
	maxBodyBytes int64
	logger       logger.Logger
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps AnalyzeDependencies, maxBodyBytes int64, l logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps, maxBodyBytes: maxBodyBytes, logger: l}
}

// HandleAnalyze handles POST /analyze requests.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"
	batch, err := decodeBatch(w, r, op, h.maxBodyBytes)
	if err != nil {
		respondError(w, err)
		return
	}

	report, err := h.deps.Analyze(r.Context(), batch)
	if err != nil {
		err = classify(op, err)
		h.logger.Warn(r.Context(), "analysis request failed", logger.String("batch_id", batch.BatchID), logger.Error(err))
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
