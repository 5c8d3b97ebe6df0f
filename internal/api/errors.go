package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/emotionalcenter/amistapp/internal/apperr"
)

type errorBody struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Retryable bool   `json:"retryable,omitempty"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, code, msg string) {
	var b errorBody
	b.Error.Code = code
	b.Error.Message = msg
	b.Error.Retryable = status == http.StatusServiceUnavailable
	if b.Error.Retryable {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, b)
}

// writeError: ошибка уже залогирована сервисом; здесь только ответ.
func (s *Server) writeError(w http.ResponseWriter, _ *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		msg = "internal error"
	case http.StatusServiceUnavailable:
		msg = "store unavailable, retry later"
	}
	writeErrorBody(w, status, apperr.Code(err), msg)
}

var statuses = []struct {
	kind   error
	status int
}{
	{apperr.ErrInvalidAmount, http.StatusBadRequest},
	{apperr.ErrInvalidInput, http.StatusBadRequest},
	{apperr.ErrInvalidEmotion, http.StatusBadRequest},
	{apperr.ErrUnauthorized, http.StatusUnauthorized},
	{apperr.ErrForbidden, http.StatusForbidden},
	{apperr.ErrUnrelatedAccounts, http.StatusUnprocessableEntity},
	{apperr.ErrInsufficientBudget, http.StatusConflict},
	{apperr.ErrInsufficientPoints, http.StatusConflict},
	{apperr.ErrInsufficientBalance, http.StatusConflict},
	{apperr.ErrOutOfStock, http.StatusConflict},
	{apperr.ErrDuplicatePending, http.StatusConflict},
	{apperr.ErrDuplicateRequest, http.StatusConflict},
	{apperr.ErrInvalidTransition, http.StatusConflict},
	{apperr.ErrAlreadyLoggedToday, http.StatusConflict},
	{apperr.ErrAccountFrozen, http.StatusConflict},
	{apperr.ErrRewardInUse, http.StatusConflict},
	{apperr.ErrStoreUnavailable, http.StatusServiceUnavailable},
}

func statusFor(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.kind) {
			return s.status
		}
	}
	if apperr.IsNotFound(err) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
