package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iho/cryptotax/internal/adapter/http/dto"
	"github.com/iho/cryptotax/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownTransactionType):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownCostBasisMethod):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidAsset):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNegativeQuantity):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNegativeValue):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMissingTimestamp):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyRecord):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
