package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pookielabs/cardmarket/internal/crypto"
)

func TestAdminRejectsWhenUnconfigured(t *testing.T) {
	h := Admin(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/battles", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminAcceptsSignedRequest(t *testing.T) {
	auth := &crypto.HMACAuth{Key: "admin-1", Secret: "s3cr3t"}
	body := `{"winner":"0x1","loser":"0x2"}`

	var gotBody string
	h := Admin(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/battles", strings.NewReader(body))
	for k, v := range auth.HeadersAt(http.MethodPost, "/api/battles", body, time.Now().Unix()) {
		r.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	// The body survives verification for the handler to decode.
	assert.Equal(t, body, gotBody)
}

func TestAdminRejectsBadSignature(t *testing.T) {
	auth := &crypto.HMACAuth{Key: "admin-1", Secret: "s3cr3t"}
	body := `{"fee_bps":250}`

	h := Admin(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/marketplace", strings.NewReader(body))
	headers := auth.HeadersAt(http.MethodPost, "/api/marketplace", `{"fee_bps":9999}`, time.Now().Unix())
	for k, v := range headers {
		r.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthBearerAndAPIKey(t *testing.T) {
	h := Auth("topsecret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/cards", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/api/cards", nil)
	r.Header.Set("Authorization", "Bearer topsecret")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/api/cards", nil)
	r.Header.Set("X-API-Key", "topsecret")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/api/cards", nil)
	r.Header.Set("X-API-Key", "wrong")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
