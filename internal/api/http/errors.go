package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/logger"
	"rentacar-ledger/internal/token"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    uint32 `json:"code,omitempty"`
	Name    string `json:"name,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// statusFor maps a contract error to an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, token.ErrInsufficientFunds) {
		return http.StatusPaymentRequired
	}
	e, ok := domain.AsError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e {
	case domain.ErrAmountMustBePositive, domain.ErrRentalDurationCannotBeZero,
		domain.ErrSelfRentalNotAllowed, domain.ErrInvalidAddress, domain.ErrAdminTokenConflict:
		return http.StatusBadRequest
	}
	switch e.Kind {
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindArithmetic:
		return http.StatusUnprocessableEntity
	case domain.KindPrecondition, domain.KindLiquidity:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	detail := errorDetail{Message: err.Error()}
	if e, ok := domain.AsError(err); ok {
		detail.Code = e.Code
		detail.Name = e.Name
		detail.Kind = string(e.Kind)
	}
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		detail.Message = "internal error"
	}
	writeJSON(w, status, errorBody{Error: detail})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}
