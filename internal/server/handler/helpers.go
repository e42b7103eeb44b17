// Package handler contains the HTTP handlers for the marketplace API. Each
// handler declares a narrow local interface for the service methods it
// needs so the package never depends on concrete service types.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// HeaderIdentity carries the caller's wallet address on every request that
// acts on owned state.
const HeaderIdentity = "X-Identity"

// writeJSON marshals v as JSON and writes it to the response with the
// given HTTP status code. If marshaling fails, it falls back to a
// plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps a service error onto an HTTP status. Unknown
// errors are logged and reported as a generic 500 so internals never leak
// to clients.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := domainStatus(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "handler: request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

// domainStatus translates domain sentinel errors into HTTP status codes.
func domainStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrInvalidFee),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidRarity),
		errors.Is(err, domain.ErrInvalidElement),
		errors.Is(err, domain.ErrInvalidIdentity):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrNotCardOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrNotListed),
		errors.Is(err, domain.ErrAuctionNotActive):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrAlreadyListed),
		errors.Is(err, domain.ErrAuctionExpired),
		errors.Is(err, domain.ErrAuctionNotEnded),
		errors.Is(err, domain.ErrBidTooLow),
		errors.Is(err, domain.ErrMaxLevelReached),
		errors.Is(err, domain.ErrInsufficientExperience),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrMaxSupplyReached),
		errors.Is(err, domain.ErrCollectionInactive),
		errors.Is(err, domain.ErrLockHeld):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// identity extracts and normalises the caller's wallet address from the
// X-Identity header. Addresses are returned in EIP-55 checksum form so
// ownership comparisons are case-stable across the stack.
func identity(r *http.Request) (string, error) {
	raw := r.Header.Get(HeaderIdentity)
	if raw == "" {
		return "", domain.ErrInvalidIdentity
	}
	if !common.IsHexAddress(raw) {
		return "", domain.ErrInvalidIdentity
	}
	return common.HexToAddress(raw).Hex(), nil
}

// normalizeAddress validates a wallet address from a request body and
// returns its checksum form.
func normalizeAddress(raw string) (string, error) {
	if !common.IsHexAddress(raw) {
		return "", domain.ErrInvalidIdentity
	}
	return common.HexToAddress(raw).Hex(), nil
}

// parseListOpts extracts standard pagination parameters from the query
// string. Defaults: limit=50 (max 500), offset=0.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return domain.ListOpts{
		Limit:  limit,
		Offset: offset,
	}
}

// pathParam extracts a named path parameter from the request using Go
// 1.22+ built-in routing (http.Request.PathValue).
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}
