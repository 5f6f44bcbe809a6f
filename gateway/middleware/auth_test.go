package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"reservevault/crypto"
)

func captureIdentity(seen *[20]byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if ok {
			*seen = identity
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticatorAcceptsSignedSubject(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: "s3cret", Issuer: "vaultd", Audience: "api"}, nil)
	identity := [20]byte{0xAB, 19: 0xCD}
	token, err := IssueToken("s3cret", identity, "vaultd", "api", time.Minute, time.Now())
	require.NoError(t, err)

	var seen [20]byte
	handler := auth.Middleware()(captureIdentity(&seen))
	req := httptest.NewRequest(http.MethodPost, "/v1/deposit", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusNoContent, res.Code)
	require.Equal(t, identity, seen)
}

func TestAuthenticatorRejectsBadTokens(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: "s3cret", Audience: "api"}, nil)
	identity := [20]byte{1}
	now := time.Now()

	wrongSecret, err := IssueToken("other", identity, "", "api", time.Minute, now)
	require.NoError(t, err)
	expired, err := IssueToken("s3cret", identity, "", "api", time.Second, now.Add(-time.Hour))
	require.NoError(t, err)
	wrongAudience, err := IssueToken("s3cret", identity, "", "web", time.Minute, now)
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": crypto.FromIdentity(identity).String(),
		"aud": "api",
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	zeroSubject, err := IssueToken("s3cret", [20]byte{}, "", "api", time.Minute, now)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":       "",
		"scheme":        "Basic abc",
		"secret":        "Bearer " + wrongSecret,
		"expired":       "Bearer " + expired,
		"audience":      "Bearer " + wrongAudience,
		"no-expiry":     "Bearer " + noExpiry,
		"zero-identity": "Bearer " + zeroSubject,
	} {
		var seen [20]byte
		req := httptest.NewRequest(http.MethodPost, "/v1/deposit", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		res := httptest.NewRecorder()
		auth.Middleware()(captureIdentity(&seen)).ServeHTTP(res, req)
		require.Equal(t, http.StatusUnauthorized, res.Code, name)
	}
}

func TestAuthenticatorDisabledUsesHeader(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{}, nil)
	var seen [20]byte
	handler := auth.Middleware()(captureIdentity(&seen))

	req := httptest.NewRequest(http.MethodPost, "/v1/deposit", nil)
	req.Header.Set(HeaderCallerIdentity, "0x00000000000000000000000000000000000000aa")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusNoContent, res.Code)
	require.Equal(t, byte(0xAA), seen[19])

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/deposit", nil))
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestIssueTokenValidates(t *testing.T) {
	_, err := IssueToken("", [20]byte{1}, "", "", time.Minute, time.Now())
	require.Error(t, err)
	_, err = IssueToken("x", [20]byte{1}, "", "", 0, time.Now())
	require.Error(t, err)
}
