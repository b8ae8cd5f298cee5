package api

import (
	"net/http"
)

type healthResponse struct {
	Status  string `json:"status"`
	Held    int    `json:"held"`
	Running int    `json:"running"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Scheduler().Snapshot()
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Held:    snap.Held,
		Running: snap.Running,
	})
}
