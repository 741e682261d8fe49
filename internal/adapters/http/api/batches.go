package api

import (
	"context"
	"net/http"

	"github.com/okian/coordwatch/internal/domain/model"
	"github.com/okian/coordwatch/internal/domain/types"
	"github.com/okian/coordwatch/pkg/logger"
)

// BatchDependencies defines the interface for asynchronous submission.
type BatchDependencies interface {
	Submit(ctx context.Context, batch model.Batch) (types.Submission, error)
}

// BatchesHandler handles batch submission requests.
type BatchesHandler struct {
	deps         BatchDependencies
	maxBodyBytes int64
	logger       logger.Logger
}

type ackResponse struct {
	Status    string `json:"status"`
	BatchID   string `json:"batch_id"`
	Duplicate bool   `json:"duplicate"`
	Users     int    `json:"users"`
	Posts     int    `json:"posts"`
}

// NewBatchesHandler creates a new batches handler.
func NewBatchesHandler(deps BatchDependencies, maxBodyBytes int64, l logger.Logger) *BatchesHandler {
	return &BatchesHandler{deps: deps, maxBodyBytes: maxBodyBytes, logger: l}
}

// HandleSubmit handles POST /batches requests.
func (h *BatchesHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_batch"
	batch, err := decodeBatch(w, r, op, h.maxBodyBytes)
	if err != nil {
		respondError(w, err)
		return
	}

	sub, err := h.deps.Submit(r.Context(), batch)
	if err != nil {
		err = classify(op, err)
		h.logger.Debug(r.Context(), "batch refused", logger.String("batch_id", batch.BatchID), logger.Error(err))
		respondError(w, err)
		return
	}

	ack := ackResponse{Status: "accepted", BatchID: sub.BatchID, Duplicate: sub.Duplicate, Users: sub.Users, Posts: sub.Posts}
	if sub.Duplicate {
		ack.Status = "duplicate"
		writeJSON(w, http.StatusOK, ack)
		return
	}
	w.Header().Set("Location", "/assessments/"+sub.BatchID)
	writeJSON(w, http.StatusAccepted, ack)
}
