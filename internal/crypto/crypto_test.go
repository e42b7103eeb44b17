package crypto

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptSecretRoundTrip(t *testing.T) {
	blob, err := EncryptSecret("super-secret-value", "hunter2")
	require.NoError(t, err)

	got, err := DecryptSecret(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "super-secret-value", got)
}

func TestDecryptSecretWrongPassword(t *testing.T) {
	blob, err := EncryptSecret("super-secret-value", "hunter2")
	require.NoError(t, err)

	_, err = DecryptSecret(blob, "wrong")
	assert.Error(t, err)
}

func TestEncryptSecretValidation(t *testing.T) {
	_, err := EncryptSecret("", "hunter2")
	assert.Error(t, err)

	_, err = EncryptSecret("secret", "")
	assert.Error(t, err)
}

func TestLoadSecretRawTakesPrecedence(t *testing.T) {
	got, err := LoadSecret(SecretConfig{RawSecret: "raw-wins", EncryptedSecretPath: "/does/not/exist"})
	require.NoError(t, err)
	assert.Equal(t, "raw-wins", got)
}

func TestLoadSecretFromFile(t *testing.T) {
	blob, err := EncryptSecret("file-secret", "pw")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "secret.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	got, err := LoadSecret(SecretConfig{EncryptedSecretPath: path, SecretPassword: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "file-secret", got)
}

func TestLoadSecretNoSource(t *testing.T) {
	_, err := LoadSecret(SecretConfig{})
	assert.Error(t, err)
}

func TestHMACHeadersVerify(t *testing.T) {
	auth := &HMACAuth{Key: "admin-1", Secret: "s3cr3t"}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	headers := auth.HeadersAt("POST", "/api/cards/abc/stats", `{"attack":5}`, now.Unix())

	err := auth.Verify(
		headers[HeaderAdminKey],
		headers[HeaderAdminTimestamp],
		headers[HeaderAdminSignature],
		"POST", "/api/cards/abc/stats", `{"attack":5}`, now)
	assert.NoError(t, err)
}

func TestHMACVerifyRejectsTampering(t *testing.T) {
	auth := &HMACAuth{Key: "admin-1", Secret: "s3cr3t"}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	headers := auth.HeadersAt("POST", "/api/cards/abc/stats", `{"attack":5}`, now.Unix())

	// Body changed after signing.
	err := auth.Verify(
		headers[HeaderAdminKey],
		headers[HeaderAdminTimestamp],
		headers[HeaderAdminSignature],
		"POST", "/api/cards/abc/stats", `{"attack":99}`, now)
	assert.Error(t, err)

	// Wrong key identifier.
	err = auth.Verify("admin-2",
		headers[HeaderAdminTimestamp],
		headers[HeaderAdminSignature],
		"POST", "/api/cards/abc/stats", `{"attack":5}`, now)
	assert.Error(t, err)
}

func TestHMACVerifyRejectsStaleTimestamp(t *testing.T) {
	auth := &HMACAuth{Key: "admin-1", Secret: "s3cr3t"}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	headers := auth.HeadersAt("GET", "/api/marketplace", "", now.Unix())

	err := auth.Verify(
		headers[HeaderAdminKey],
		headers[HeaderAdminTimestamp],
		headers[HeaderAdminSignature],
		"GET", "/api/marketplace", "", now.Add(MaxClockSkew+time.Second))
	assert.Error(t, err)

	// Within the window is fine, in either direction.
	err = auth.Verify(
		headers[HeaderAdminKey],
		headers[HeaderAdminTimestamp],
		headers[HeaderAdminSignature],
		"GET", "/api/marketplace", "", now.Add(-MaxClockSkew))
	assert.NoError(t, err)
}

func TestHMACStringRedacts(t *testing.T) {
	auth := &HMACAuth{Key: "admin-key-1", Secret: "very-long-secret"}
	s := auth.String()
	assert.NotContains(t, s, "very-long-secret")
	assert.Contains(t, s, "admi****")
}
