package http

import (
	"io"
	"net/http"

	"jangbu/internal/core"
	applog "jangbu/internal/log"
)

const maxUploadSize = 10 << 20

// expenseListResponse is the view plus the id of a just-created record, so
// the client can highlight it briefly.
type expenseListResponse struct {
	Items    []core.Expense `json:"items"`
	Summary  core.Summary   `json:"summary"`
	Range    core.DateRange `json:"range"`
	Filter   core.Filter    `json:"filter"`
	LoadErr  string         `json:"load_error,omitempty"`
	RecentID string         `json:"recent_id,omitempty"`
}

func filterFromQuery(r *http.Request) core.Filter {
	q := r.URL.Query()
	return core.Filter{
		Search:    q.Get("search"),
		DateFrom:  q.Get("date_from"),
		DateTo:    q.Get("date_to"),
		Category:  q.Get("category"),
		MinAmount: q.Get("min_amount"),
		MaxAmount: q.Get("max_amount"),
		StoreName: q.Get("store_name"),
		Reason:    q.Get("reason"),
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	s.expenses.SetFilter(filterFromQuery(r))
	s.expenses.Refresh(r.Context())
	view := s.expenses.View()

	resp := expenseListResponse{
		Items:   view.Items,
		Summary: view.Summary,
		Range:   view.Range,
		Filter:  view.Filter,
		LoadErr: view.LoadErr,
	}
	for _, e := range view.Items {
		if s.expenses.RecentlyAdded(e.ID) {
			resp.RecentID = e.ID
			break
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := decodeJSON(r, &e); err != nil {
		respondError(w, http.StatusBadRequest, "요청 본문이 올바르지 않습니다.")
		return
	}

	created, err := s.expenses.Create(r.Context(), e)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	s.pdfCache.Purge()
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := decodeJSON(r, &e); err != nil {
		respondError(w, http.StatusBadRequest, "요청 본문이 올바르지 않습니다.")
		return
	}
	e.ID = r.PathValue("id")

	updated, err := s.expenses.Update(r.Context(), e)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	s.pdfCache.Purge()
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.Remove(r.Context(), r.PathValue("id")); err != nil {
		respondDomainError(w, err)
		return
	}
	s.pdfCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearExpenses(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.RemoveAll(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}
	s.pdfCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

// handleIngestReceipt accepts a multipart upload under the "image" field and
// runs the analyze-store-create pipeline.
func (s *Server) handleIngestReceipt(w http.ResponseWriter, r *http.Request) {
	if s.ingestor == nil {
		respondError(w, http.StatusServiceUnavailable, "영수증 분석이 구성되지 않았습니다.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "이미지 업로드가 올바르지 않습니다.")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image 필드가 필요합니다.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "이미지를 읽을 수 없습니다.")
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	created, err := s.ingestor.IngestReceipt(r.Context(), data, mimeType)
	if err != nil {
		s.logger.WarnContext(r.Context(), "receipt ingest failed",
			applog.FieldError, err)
		respondDomainError(w, err)
		return
	}
	s.pdfCache.Purge()
	respondJSON(w, http.StatusCreated, created)
}
