// Package auth verifies signed session tokens for the management API against
// a remote JSON Web Key Set.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"
)

// Keyset maps key ids to their RSA public keys.
type Keyset map[string]*rsa.PublicKey

// KeysetSource provides the current signing keys. Implementations are safe
// for concurrent use.
type KeysetSource interface {
	Keys(ctx context.Context) (Keyset, error)
}

// HTTPKeysetSource fetches a JWKS document over HTTPS and caches the parsed
// keys for the lifetime of the process. Refresh and Invalidate expose the
// cache lifecycle so callers can react to key rotation.
type HTTPKeysetSource struct {
	url    string
	client *http.Client

	mu     sync.Mutex
	cached Keyset
}

// NewHTTPKeysetSource creates a source for the given JWKS URL.
func NewHTTPKeysetSource(url string) *HTTPKeysetSource {
	return &HTTPKeysetSource{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Keys returns the cached keyset, fetching it on first use.
func (s *HTTPKeysetSource) Keys(ctx context.Context) (Keyset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return s.cached, nil
	}

	keys, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.cached = keys
	return keys, nil
}

// Refresh discards the cache and fetches the keyset again.
func (s *HTTPKeysetSource) Refresh(ctx context.Context) error {
	keys, err := s.fetch(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cached = keys
	s.mu.Unlock()
	return nil
}

// Invalidate discards the cache; the next Keys call fetches fresh keys.
func (s *HTTPKeysetSource) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func (s *HTTPKeysetSource) fetch(ctx context.Context) (Keyset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build jwks request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	return parseKeyset(doc)
}

type jwksDocument struct {
	Keys []jwksKey `json:"keys"`
}

type jwksKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// parseKeyset converts RSA JWKS entries into public keys. Non-RSA entries
// are skipped.
func parseKeyset(doc jwksDocument) (Keyset, error) {
	keys := make(Keyset, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}

		nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			return nil, fmt.Errorf("decode modulus for key %q: %w", k.Kid, err)
		}
		eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			return nil, fmt.Errorf("decode exponent for key %q: %w", k.Kid, err)
		}

		keys[k.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(nBytes),
			E: int(new(big.Int).SetBytes(eBytes).Int64()),
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("jwks document contains no usable RSA keys")
	}
	return keys, nil
}
