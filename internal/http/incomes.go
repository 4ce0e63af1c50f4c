package http

import (
	"net/http"

	"jangbu/internal/core"
)

type incomeListResponse struct {
	Items    []core.Income  `json:"items"`
	Total    int64          `json:"total"`
	Range    core.DateRange `json:"range"`
	LoadErr  string         `json:"load_error,omitempty"`
	RecentID string         `json:"recent_id,omitempty"`
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	s.incomes.Refresh(r.Context())
	view := s.incomes.View()

	resp := incomeListResponse{
		Items:   view.Items,
		Total:   view.Total,
		Range:   view.Range,
		LoadErr: view.LoadErr,
	}
	for _, in := range view.Items {
		if s.incomes.RecentlyAdded(in.ID) {
			resp.RecentID = in.ID
			break
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var in core.Income
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "요청 본문이 올바르지 않습니다.")
		return
	}

	created, err := s.incomes.Create(r.Context(), in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	s.pdfCache.Purge()
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	var in core.Income
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "요청 본문이 올바르지 않습니다.")
		return
	}
	in.ID = r.PathValue("id")

	updated, err := s.incomes.Update(r.Context(), in)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	s.pdfCache.Purge()
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	if err := s.incomes.Remove(r.Context(), r.PathValue("id")); err != nil {
		respondDomainError(w, err)
		return
	}
	s.pdfCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearIncomes(w http.ResponseWriter, r *http.Request) {
	if err := s.incomes.RemoveAll(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}
	s.pdfCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}
