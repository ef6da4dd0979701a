package server

import (
	"encoding/json"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storeHealth := s.store.Health(r.Context())

	marketplaceStatus := "offline"
	if s.search != nil && s.search.Healthy(r.Context()) {
		marketplaceStatus = "online"
	}

	status := "online"
	if storeHealth.Status != "healthy" {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      status,
		Timestamp:   time.Now(),
		Version:     versionString(),
		Uptime:      s.uptime(),
		Store:       storeHealth.Status,
		Marketplace: marketplaceStatus,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
