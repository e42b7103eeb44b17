package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pookielabs/cardmarket/internal/domain"
)

func TestDomainStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidPrice, http.StatusBadRequest},
		{domain.ErrInvalidIdentity, http.StatusBadRequest},
		{domain.ErrNotCardOwner, http.StatusForbidden},
		{domain.ErrUnauthorized, http.StatusForbidden},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrNotListed, http.StatusNotFound},
		{domain.ErrAuctionNotActive, http.StatusNotFound},
		{domain.ErrAlreadyListed, http.StatusConflict},
		{domain.ErrBidTooLow, http.StatusConflict},
		{domain.ErrAuctionExpired, http.StatusConflict},
		{domain.ErrAuctionNotEnded, http.StatusConflict},
		{domain.ErrInsufficientExperience, http.StatusConflict},
		{domain.ErrLockHeld, http.StatusConflict},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, domainStatus(tc.err), "error %v", tc.err)
	}
}

func TestIdentityNormalisesChecksum(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderIdentity, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")

	got, err := identity(r)
	require.NoError(t, err)
	// EIP-55 checksum form.
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", got)
}

func TestIdentityRejectsMissingOrMalformed(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := identity(r)
	assert.ErrorIs(t, err, domain.ErrInvalidIdentity)

	r.Header.Set(HeaderIdentity, "not-an-address")
	_, err = identity(r)
	assert.ErrorIs(t, err, domain.ErrInvalidIdentity)
}

func TestParseListOptsDefaultsAndClamp(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/cards", nil)
	opts := parseListOpts(r)
	assert.Equal(t, 50, opts.Limit)
	assert.Zero(t, opts.Offset)

	r = httptest.NewRequest(http.MethodGet, "/api/cards?limit=9999&offset=20", nil)
	opts = parseListOpts(r)
	assert.Equal(t, 500, opts.Limit)
	assert.Equal(t, 20, opts.Offset)
}

func TestWriteDomainErrorHidesInternals(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/cards/x", nil)
	r = r.WithContext(context.Background())

	writeDomainError(w, r, logger, io.ErrUnexpectedEOF)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())

	w = httptest.NewRecorder()
	writeDomainError(w, r, logger, domain.ErrNotCardOwner)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrNotCardOwner.Error())
}
