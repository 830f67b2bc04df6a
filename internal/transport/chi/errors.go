package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cardex/internal/db"
	"github.com/kailas-cloud/cardex/internal/domain"
	"github.com/kailas-cloud/cardex/internal/logger"
)

// ErrorCode is a machine-readable error tag.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeInvalidQuery     ErrorCode = "invalid_query"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeCardNotFound     ErrorCode = "card_not_found"
	CodeSessionNotFound  ErrorCode = "session_not_found"
	CodeRateLimited      ErrorCode = "rate_limited"
	CodeStoreUnavailable ErrorCode = "store_unavailable"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx answer.
// Error repeats Message for clients that read the `error` key.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Error   string    `json:"error"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		messageHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery, "Search query is required"),
		sentinelHandler(domain.ErrComparisonTooFew, http.StatusBadRequest, CodeValidationFailed),
		invalidRequestHandler,
		sentinelHandler(domain.ErrCardNotFound, http.StatusNotFound, CodeCardNotFound),
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, CodeSessionNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusInternalServerError, CodeStoreUnavailable),
		storeErrorHandler,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
		Error:   message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrInvalidRequest,
		domain.ErrCardNotFound,
		domain.ErrSessionNotFound,
		domain.ErrComparisonTooFew,
		domain.ErrStoreUnavailable,
		domain.ErrRateLimited,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// messageHandler is a sentinelHandler with a fixed client message.
func messageHandler(sentinel error, status int, code ErrorCode, message string) errorHandler {
	return func(w http.ResponseWriter, err error, _ string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, message)
		return true
	}
}

// invalidRequestHandler passes validation details through: they are built from request input only.
func invalidRequestHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidRequest) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
	return true
}

// storeErrorHandler answers raw database failures that reached the transport unwrapped.
func storeErrorHandler(w http.ResponseWriter, err error, _ string) bool {
	if !db.IsUnavailable(err) {
		return false
	}
	writeError(w, http.StatusInternalServerError, CodeStoreUnavailable, domain.ErrStoreUnavailable.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.FromContext(r.Context()).Warn("unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func writeBadBody(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
}
