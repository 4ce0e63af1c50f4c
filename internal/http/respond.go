package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"jangbu/internal/analysis"
	"jangbu/internal/core"
	"jangbu/internal/ledger"
	"jangbu/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// statusFor maps domain errors onto HTTP statuses with user-facing messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "항목을 찾을 수 없습니다."
	case errors.Is(err, core.ErrInvalidPIN):
		return http.StatusForbidden, "PIN이 올바르지 않습니다."
	case errors.Is(err, core.ErrInvalidDate):
		return http.StatusBadRequest, "날짜 형식이 올바르지 않습니다. (YYYY-MM-DD)"
	case errors.Is(err, core.ErrInvalidTime):
		return http.StatusBadRequest, "시간 형식이 올바르지 않습니다. (HH:MM)"
	case errors.Is(err, core.ErrInvalidAmount):
		return http.StatusBadRequest, "금액은 0 이상이어야 합니다."
	case errors.Is(err, core.ErrEmptyStoreName):
		return http.StatusBadRequest, "가게 이름을 입력해주세요."
	case errors.Is(err, core.ErrInvalidMethod):
		return http.StatusBadRequest, "수입 방법이 올바르지 않습니다."
	case errors.Is(err, analysis.ErrNoAPIKey):
		return http.StatusBadRequest, "API 키가 설정되지 않았습니다. 설정에서 키를 등록해주세요."
	case errors.Is(err, analysis.ErrInvalidAPIKey):
		return http.StatusBadGateway, "API 키가 유효하지 않습니다."
	case errors.Is(err, analysis.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "분석 사용량 한도를 초과했습니다. 잠시 후 다시 시도해주세요."
	case errors.Is(err, analysis.ErrModelUnavailable):
		return http.StatusServiceUnavailable, "분석 모델을 사용할 수 없습니다."
	case errors.Is(err, analysis.ErrNetwork):
		return http.StatusBadGateway, "분석 서버에 연결할 수 없습니다."
	case errors.Is(err, analysis.ErrUnparseable):
		return http.StatusUnprocessableEntity, "영수증을 인식하지 못했습니다. 직접 입력해주세요."
	default:
		return http.StatusInternalServerError, "요청 처리 중 오류가 발생했습니다."
	}
}

func respondDomainError(w http.ResponseWriter, err error) {
	// The period-mismatch alert names the configured range.
	var oor *ledger.OutOfRangeError
	if errors.As(err, &oor) {
		respondError(w, http.StatusUnprocessableEntity,
			"설정된 기간("+oor.Range.Label()+")에 포함되지 않는 날짜입니다.")
		return
	}
	status, msg := statusFor(err)
	respondError(w, status, msg)
}
