package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/osse101/TriviaCast_Go/internal/domain"
	"github.com/osse101/TriviaCast_Go/internal/logger"
)

// Standard response types for consistent API responses

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Get a buffer from the pool to reduce allocations
	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		// Headers are already sent
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError logs a failed operation and writes the mapped response
func respondServiceError(w http.ResponseWriter, r *http.Request, opName string, err error) {
	status, message := mapServiceErrorToUserMessage(err)

	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(opName+" failed", "error", err, "status", status)
	} else {
		log.Warn(opName+" rejected", "error", err, "status", status)
	}

	respondError(w, status, message)
}

// mapServiceErrorToUserMessage maps domain errors to HTTP status codes and
// messages that callers can act upon. Specific errors are checked before
// their categories.
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrGameNotFound):
		return http.StatusNotFound, ErrMsgGameNotFoundError
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrMsgGameNotFoundError

	case errors.Is(err, domain.ErrGameNotEnded):
		return http.StatusConflict, ErrMsgGameNotEndedError
	case errors.Is(err, domain.ErrGameNotRanked):
		return http.StatusConflict, ErrMsgGameNotRankedError
	case errors.Is(err, domain.ErrGameNotOnchain):
		return http.StatusConflict, ErrMsgGameNotOnchainError
	case errors.Is(err, domain.ErrPublishInProgress):
		return http.StatusConflict, ErrMsgPublishInProgressError
	case errors.Is(err, domain.ErrWinnerWalletMissing):
		return http.StatusConflict, ErrMsgWinnerWalletMissingError
	case errors.Is(err, domain.ErrInvalidPrizeCurve):
		return http.StatusConflict, ErrMsgInvalidPrizeCurveError
	case errors.Is(err, domain.ErrPrecondition):
		return http.StatusConflict, ErrMsgPreconditionError

	case errors.Is(err, domain.ErrAuth):
		return http.StatusUnauthorized, ErrMsgUnauthorizedError
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrMsgInvalidRequestSummary
	case errors.Is(err, domain.ErrChain):
		return http.StatusBadGateway, ErrMsgChainError
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusServiceUnavailable, ErrMsgUnavailableError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrMsgTimeoutError
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}
