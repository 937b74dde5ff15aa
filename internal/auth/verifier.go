package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates the session token failed verification.
var ErrInvalidToken = errors.New("invalid session token")

// Identity is the verified principal behind a management request.
type Identity struct {
	Subject string
}

// Verifier validates RS256 session tokens issued by the identity provider.
// The keyset is injected rather than fetched ambiently so its lifecycle is
// explicit and testable.
type Verifier struct {
	source KeysetSource
	issuer string // optional; empty disables issuer checking
}

// NewVerifier creates a Verifier backed by the given keyset source.
func NewVerifier(source KeysetSource, issuer string) *Verifier {
	return &Verifier{source: source, issuer: issuer}
}

// Verify parses and validates the token, resolving the signing key by kid.
// An unknown kid triggers one keyset refresh before failing, to tolerate key
// rotation. The audience claim is not enforced; the identity provider does
// not issue a standard aud.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	keys, err := v.source.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load keyset: %w", err)
	}

	identity, err := v.verifyWith(keys, tokenString)
	if err == nil {
		return identity, nil
	}

	// Unknown kid may mean the provider rotated keys since we cached.
	if refresher, ok := v.source.(*HTTPKeysetSource); ok && errors.Is(err, errUnknownKid) {
		if refreshErr := refresher.Refresh(ctx); refreshErr == nil {
			if keys, keysErr := v.source.Keys(ctx); keysErr == nil {
				return v.verifyWith(keys, tokenString)
			}
		}
	}

	return nil, err
}

var errUnknownKid = fmt.Errorf("%w: signing key not found", ErrInvalidToken)

func (v *Verifier) verifyWith(keys Keyset, tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"RS256"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: token has no kid header", ErrInvalidToken)
		}
		key, ok := keys[kid]
		if !ok {
			return nil, errUnknownKid
		}
		return key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, errUnknownKid) {
			return nil, errUnknownKid
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("%w: read subject: %w", ErrInvalidToken, err)
	}

	return &Identity{Subject: subject}, nil
}
