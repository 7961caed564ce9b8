package rest

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/marketbay/auction-exchange-backend/internal/domain/errors"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// writeError maps an error onto the standard response envelope. Domain
// errors carry their own status code; anything unrecognized becomes a
// generic 500 without leaking internals.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := errorBody{
		Code:      "INTERNAL_ERROR",
		Message:   "an internal error occurred",
		RequestID: requestIDFromContext(r.Context()),
	}

	var appErr *errors.AppError
	var validationErrs validator.ValidationErrors

	switch {
	case stderrors.As(err, &appErr):
		status = appErr.StatusCode
		body.Code = appErr.Code
		body.Message = appErr.Message
		body.Details = appErr.Details
	case stderrors.As(err, &validationErrs):
		status = http.StatusBadRequest
		body.Code = "INVALID_INPUT"
		body.Message = "request validation failed"
		details := make(map[string]interface{}, len(validationErrs))
		for _, fe := range validationErrs {
			details[fe.Field()] = fe.Tag()
		}
		body.Details = details
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}

	writeJSON(w, status, errorResponse{Error: body})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
