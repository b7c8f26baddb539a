package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/eddostedson/eddo-budg-sub001/internal/adapter/http/dto"
	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
)

// errInvalidQuery is returned for a malformed query parameter.
var errInvalidQuery = errors.New("invalid query parameter")

// retryAfterSeconds is advertised to clients that lost a lock race.
const retryAfterSeconds = "1"

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

// writeDomainError writes err with the status mapDomainError picks for it.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := mapDomainError(err)
	if status == http.StatusConflict {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	if status == http.StatusInternalServerError {
		writeError(w, status, message, "")
		return
	}
	writeError(w, status, message, err.Error())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOwnershipMismatch),
		errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrAccountInactive):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidDirection),
		errors.Is(err, domain.ErrInvalidOwner),
		errors.Is(err, domain.ErrInvalidAccountName),
		errors.Is(err, domain.ErrInvalidAccountKind),
		errors.Is(err, domain.ErrInvalidWalletKind),
		errors.Is(err, domain.ErrInvalidInitialBalance),
		errors.Is(err, domain.ErrInvalidLabel),
		errors.Is(err, domain.ErrNothingToUpdate),
		errors.Is(err, dto.ErrInvalidCursor),
		errors.Is(err, errInvalidQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ownerID returns the owner of the authenticated caller, writing a 401 when
// the request carries none.
func ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	p, ok := domain.PrincipalFromContext(r.Context())
	if !ok || p.OwnerID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", domain.ErrUnauthorized.Error())
		return "", false
	}
	return p.OwnerID, true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseTimeQuery parses an optional RFC3339 query parameter.
func parseTimeQuery(r *http.Request, key string) (*time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
