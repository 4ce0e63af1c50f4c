package http

import (
	"net/http"

	"jangbu/internal/core"
)

// updateSettingsRequest carries the verification PIN alongside the new
// values. NewPIN and APIKey left blank keep the stored secrets.
type updateSettingsRequest struct {
	PIN       string `json:"pin"`
	Budget    int64  `json:"budget"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	NewPIN    string `json:"new_pin"`
	APIKey    string `json:"api_key"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.Get(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "요청 본문이 올바르지 않습니다.")
		return
	}

	updated, err := s.settings.Update(r.Context(), req.PIN, core.Settings{
		Budget:    req.Budget,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		PIN:       req.NewPIN,
		APIKey:    req.APIKey,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	// Budget and range changes invalidate every cached report.
	s.pdfCache.Purge()
	respondJSON(w, http.StatusOK, updated)
}

// handleDiagDB probes the storage layer with a real read. The raw error is
// returned here so a broken deployment can be diagnosed from the client.
func (s *Server) handleDiagDB(w http.ResponseWriter, r *http.Request) {
	if _, err := s.settings.Get(r.Context()); err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
