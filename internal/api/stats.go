package api

import (
	"net/http"

	"github.com/seantiz/parallel/internal/scheduler"
)

// runStats is the run history part of GET /v1/stats.
type runStats struct {
	Total         int            `json:"total"`
	ByStatus      map[string]int `json:"by_status"`
	AvgDurationMS float64        `json:"avg_duration_ms"`
}

// statsResponse is the JSON response for GET /v1/stats. Runs is omitted when
// run history is disabled.
type statsResponse struct {
	Scheduler scheduler.Stats `json:"scheduler"`
	Runs      *runStats       `json:"runs,omitempty"`
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{Scheduler: s.engine.Scheduler().Snapshot()}

	if st := s.engine.Store(); st != nil {
		stats, err := st.GetRunStats(r.Context())
		if err != nil {
			s.logger.Error("get run stats", "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to get stats")
			return
		}
		resp.Runs = &runStats{
			Total:         stats.Total,
			ByStatus:      stats.CountByStatus,
			AvgDurationMS: stats.AvgDurationMS,
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}
