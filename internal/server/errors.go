package server

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/athanius07/EMESRT11/internal/refresh"
	"github.com/athanius07/EMESRT11/internal/view"
)

// ErrorCode classifies an error response.
type ErrorCode string

const (
	CodeInternal         ErrorCode = "INTERNAL_ERROR"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	CodeRateLimited      ErrorCode = "RATE_LIMITED"
	CodeTimeout          ErrorCode = "TIMEOUT"
	CodeProviderFailed   ErrorCode = ErrorCode(refresh.StageProvider)
	CodeStoreReadFailed  ErrorCode = ErrorCode(refresh.StageRead)
	CodeStoreWriteFailed ErrorCode = ErrorCode(refresh.StageWrite)
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Status    string    `json:"status"`
	ErrorCode ErrorCode `json:"error_code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
}

// ErrorHandler writes error responses.
type ErrorHandler struct {
	logger *zap.Logger
}

// NewErrorHandler creates an error handler.
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleRefreshError reports a failed read or refresh. There is no partial
// success: every failure is a 500 unless the client went away or the
// deadline passed.
func (h *ErrorHandler) HandleRefreshError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := CodeInternal
	message := "refresh failed"

	switch stage := refresh.StageOf(err); {
	case errors.Is(err, context.DeadlineExceeded):
		status, code, message = http.StatusGatewayTimeout, CodeTimeout, "refresh timed out"
	case stage != "":
		code = ErrorCode(stage)
	}

	h.logger.Error("refresh request failed",
		zap.Error(err),
		zap.String("request_id", RequestIDFrom(r.Context())))
	h.Write(w, r, status, code, message)
}

// Write sends an error body with the given status.
func (h *ErrorHandler) Write(w http.ResponseWriter, r *http.Request, status int, code ErrorCode, message string) {
	requestID := RequestIDFrom(r.Context())
	h.logger.Warn("HTTP error response",
		zap.Int("status_code", status),
		zap.String("error_code", string(code)),
		zap.String("message", message),
		zap.String("request_id", requestID),
	)

	w.Header().Set("Content-Type", view.ContentTypeJSON)
	w.WriteHeader(status)
	if err := view.WriteJSON(w, ErrorResponse{
		Status:    "error",
		ErrorCode: code,
		Message:   message,
		RequestID: requestID,
	}); err != nil {
		h.logger.Debug("write error body", zap.Error(err))
	}
}
