package api

import (
	"maps"
	"net/http"
	"time"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the service statistics plus the API's own settings.
type StatsHandler struct {
	statsProvider StatsProvider
	maxBodyBytes  int64
	started       time.Time
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider, maxBodyBytes int64) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider, maxBodyBytes: maxBodyBytes, started: time.Now()}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	out := maps.Clone(h.statsProvider.GetStats())
	if out == nil {
		out = map[string]interface{}{}
	}
	out["uptimeSeconds"] = int64(time.Since(h.started).Seconds())
	out["maxBodyBytes"] = h.maxBodyBytes
	writeJSON(w, http.StatusOK, out)
}
