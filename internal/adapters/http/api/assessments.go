package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/coordwatch/internal/domain/types"
)

// AssessmentDependencies defines the interface for reading reports.
type AssessmentDependencies interface {
	Assessment(ctx context.Context, batchID string) (types.Report, error)
}

// AssessmentHandler handles report lookups.
type AssessmentHandler struct {
	deps AssessmentDependencies
}

type pendingResponse struct {
	Status  string `json:"status"`
	BatchID string `json:"batch_id"`
}

type failedResponse struct {
	Status  string `json:"status"`
	BatchID string `json:"batch_id"`
	Error   string `json:"error"`
}

// NewAssessmentHandler creates a new assessment handler.
func NewAssessmentHandler(deps AssessmentDependencies) *AssessmentHandler {
	return &AssessmentHandler{deps: deps}
}

// HandleGetAssessment handles GET /assessments/{batch_id} requests.
// A queued batch answers 202, a failed one 200 with status "failed".
func (h *AssessmentHandler) HandleGetAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_assessment"
	id := strings.TrimSpace(r.PathValue("batch_id"))
	if id == "" {
		respondError(w, NewKind(op, ErrBadRequest))
		return
	}

	report, err := h.deps.Assessment(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, report)
	case errors.Is(err, types.ErrPending):
		writeJSON(w, http.StatusAccepted, pendingResponse{Status: "pending", BatchID: id})
	case errors.Is(err, types.ErrAnalysisFailed):
		writeJSON(w, http.StatusOK, failedResponse{Status: "failed", BatchID: id, Error: err.Error()})
	default:
		respondError(w, classify(op, err))
	}
}
