package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/pookielabs/cardmarket/internal/crypto"
)

// maxAdminBody bounds how much of an admin request body is read for
// signature verification.
const maxAdminBody = 1 << 20 // 1 MiB

// Admin returns middleware that requires a valid HMAC signature on every
// request it wraps. Privileged endpoints (marketplace init, stat overrides,
// battle results, collection management) sit behind it. If auth is nil the
// middleware rejects everything, so an unconfigured admin surface is
// closed rather than open.
func Admin(auth *crypto.HMACAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				writeForbidden(w, "admin API not configured")
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxAdminBody))
			if err != nil {
				writeForbidden(w, "unreadable request body")
				return
			}
			r.Body.Close()
			// The handler still needs the body after verification.
			r.Body = io.NopCloser(bytes.NewReader(body))

			err = auth.Verify(
				r.Header.Get(crypto.HeaderAdminKey),
				r.Header.Get(crypto.HeaderAdminTimestamp),
				r.Header.Get(crypto.HeaderAdminSignature),
				r.Method, r.URL.Path, string(body), time.Now())
			if err != nil {
				writeForbidden(w, "invalid admin signature")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeForbidden sends a 403 response with a JSON error body.
func writeForbidden(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
