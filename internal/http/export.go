package http

import (
	"net/http"
	"strconv"

	applog "jangbu/internal/log"
)

func orientationFromQuery(r *http.Request) string {
	if r.URL.Query().Get("orientation") == "L" {
		return "L"
	}
	return "P"
}

// handleExportExpenses renders the current filtered view as a PDF. Rendering
// fetches every receipt image, so finished documents are cached until the
// next mutation.
func (s *Server) handleExportExpenses(w http.ResponseWriter, r *http.Request) {
	orientation := orientationFromQuery(r)
	cacheKey := "expenses|" + orientation + "|" + r.URL.Query().Encode()

	if cached, ok := s.pdfCache.Get(cacheKey); ok {
		servePDF(w, "expenses.pdf", cached)
		return
	}

	s.expenses.SetFilter(filterFromQuery(r))
	s.expenses.Refresh(r.Context())
	view := s.expenses.View()

	out, err := s.pdf.ExpenseReport(r.Context(), view, orientation)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "expense report failed", applog.FieldError, err)
		respondError(w, http.StatusInternalServerError, "PDF 생성에 실패했습니다.")
		return
	}
	s.pdfCache.Set(cacheKey, out)
	servePDF(w, "expenses.pdf", out)
}

func (s *Server) handleExportIncomes(w http.ResponseWriter, r *http.Request) {
	orientation := orientationFromQuery(r)
	cacheKey := "incomes|" + orientation

	if cached, ok := s.pdfCache.Get(cacheKey); ok {
		servePDF(w, "incomes.pdf", cached)
		return
	}

	s.incomes.Refresh(r.Context())
	view := s.incomes.View()

	out, err := s.pdf.IncomeReport(r.Context(), view, orientation)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "income report failed", applog.FieldError, err)
		respondError(w, http.StatusInternalServerError, "PDF 생성에 실패했습니다.")
		return
	}
	s.pdfCache.Set(cacheKey, out)
	servePDF(w, "incomes.pdf", out)
}

func servePDF(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
