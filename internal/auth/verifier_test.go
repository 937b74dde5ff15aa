package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSigner bundles an RSA key pair with its JWKS representation.
type testSigner struct {
	kid string
	key *rsa.PrivateKey
}

func newTestSigner(t *testing.T, kid string) *testSigner {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &testSigner{kid: kid, key: key}
}

func (s *testSigner) jwk() map[string]string {
	return map[string]string{
		"kty": "RSA",
		"kid": s.kid,
		"n":   base64.RawURLEncoding.EncodeToString(s.key.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(s.key.E)).Bytes()),
	}
}

func (s *testSigner) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.kid
	signed, err := token.SignedString(s.key)
	require.NoError(t, err)
	return signed
}

// jwksServer serves the given signers as a JWKS document and counts fetches.
func jwksServer(t *testing.T, signers ...*testSigner) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fetches.Add(1)
		keys := make([]map[string]string, 0, len(signers))
		for _, s := range signers {
			keys = append(keys, s.jwk())
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": keys})
	}))
	t.Cleanup(srv.Close)
	return srv, &fetches
}

func validClaims(issuer string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub": "user-123",
		"iss": issuer,
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Add(-time.Minute).Unix(),
	}
}

func TestVerify_ValidToken(t *testing.T) {
	signer := newTestSigner(t, "key-1")
	srv, _ := jwksServer(t, signer)
	verifier := NewVerifier(NewHTTPKeysetSource(srv.URL), "https://issuer.test/")

	token := signer.sign(t, validClaims("https://issuer.test/"))

	identity, err := verifier.Verify(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, "user-123", identity.Subject)
}

func TestVerify_ExpiredToken(t *testing.T) {
	signer := newTestSigner(t, "key-1")
	srv, _ := jwksServer(t, signer)
	verifier := NewVerifier(NewHTTPKeysetSource(srv.URL), "")

	claims := validClaims("")
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	token := signer.sign(t, claims)

	_, err := verifier.Verify(context.Background(), token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongIssuer(t *testing.T) {
	signer := newTestSigner(t, "key-1")
	srv, _ := jwksServer(t, signer)
	verifier := NewVerifier(NewHTTPKeysetSource(srv.URL), "https://expected.test/")

	token := signer.sign(t, validClaims("https://other.test/"))

	_, err := verifier.Verify(context.Background(), token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_IssuerCheckDisabledWhenEmpty(t *testing.T) {
	signer := newTestSigner(t, "key-1")
	srv, _ := jwksServer(t, signer)
	verifier := NewVerifier(NewHTTPKeysetSource(srv.URL), "")

	token := signer.sign(t, validClaims("https://anything.test/"))

	_, err := verifier.Verify(context.Background(), token)

	assert.NoError(t, err)
}

func TestVerify_WrongSignature(t *testing.T) {
	published := newTestSigner(t, "key-1")
	impostor := newTestSigner(t, "key-1")
	srv, _ := jwksServer(t, published)
	verifier := NewVerifier(NewHTTPKeysetSource(srv.URL), "")

	token := impostor.sign(t, validClaims(""))

	_, err := verifier.Verify(context.Background(), token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsNonRS256(t *testing.T) {
	signer := newTestSigner(t, "key-1")
	srv, _ := jwksServer(t, signer)
	verifier := NewVerifier(NewHTTPKeysetSource(srv.URL), "")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims(""))
	token.Header["kid"] = "key-1"
	signed, err := token.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, verifyErr := verifier.Verify(context.Background(), signed)

	assert.ErrorIs(t, verifyErr, ErrInvalidToken)
}

func TestVerify_MissingKid(t *testing.T) {
	signer := newTestSigner(t, "key-1")
	srv, _ := jwksServer(t, signer)
	verifier := NewVerifier(NewHTTPKeysetSource(srv.URL), "")

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims(""))
	signed, err := token.SignedString(signer.key)
	require.NoError(t, err)

	_, verifyErr := verifier.Verify(context.Background(), signed)

	assert.ErrorIs(t, verifyErr, ErrInvalidToken)
}

func TestVerify_RefreshesOnUnknownKid(t *testing.T) {
	oldSigner := newTestSigner(t, "key-old")
	newSigner := newTestSigner(t, "key-new")

	// The server rotates: first fetch serves the old key, later fetches the new.
	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := fetches.Add(1)
		signer := oldSigner
		if n > 1 {
			signer = newSigner
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{signer.jwk()}})
	}))
	t.Cleanup(srv.Close)

	verifier := NewVerifier(NewHTTPKeysetSource(srv.URL), "")

	// Prime the cache with the old key.
	_, err := verifier.Verify(context.Background(), oldSigner.sign(t, validClaims("")))
	require.NoError(t, err)

	// A token signed with the rotated key forces one refresh and then verifies.
	identity, err := verifier.Verify(context.Background(), newSigner.sign(t, validClaims("")))

	require.NoError(t, err)
	assert.Equal(t, "user-123", identity.Subject)
	assert.Equal(t, int64(2), fetches.Load())
}

func TestHTTPKeysetSource_CachesAcrossCalls(t *testing.T) {
	signer := newTestSigner(t, "key-1")
	srv, fetches := jwksServer(t, signer)
	source := NewHTTPKeysetSource(srv.URL)

	for i := 0; i < 3; i++ {
		keys, err := source.Keys(context.Background())
		require.NoError(t, err)
		assert.Contains(t, keys, "key-1")
	}
	assert.Equal(t, int64(1), fetches.Load())

	source.Invalidate()
	_, err := source.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), fetches.Load())
}

func TestHTTPKeysetSource_RejectsEmptyKeyset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{{"kty": "EC", "kid": "ec-1"}}})
	}))
	t.Cleanup(srv.Close)
	source := NewHTTPKeysetSource(srv.URL)

	_, err := source.Keys(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable RSA keys")
}

func TestHTTPKeysetSource_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	source := NewHTTPKeysetSource(srv.URL)

	_, err := source.Keys(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}
