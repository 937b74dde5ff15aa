package application

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/leakguardhq/leakguard/internal/domain/model"
	"github.com/leakguardhq/leakguard/internal/domain/port/driven"
)

// keySecretPrefix marks LeakGuard-issued key secrets.
const keySecretPrefix = "lk_"

// APIKeyService issues API keys. The secret value is always generated here,
// never accepted from a client.
type APIKeyService struct {
	keys driven.APIKeyStore
}

// NewAPIKeyService creates an APIKeyService backed by the given store.
func NewAPIKeyService(keys driven.APIKeyStore) *APIKeyService {
	return &APIKeyService{keys: keys}
}

// Issue generates a fresh secret and persists the key, optionally linked to
// a project.
func (s *APIKeyService) Issue(ctx context.Context, name, projectID string) (model.APIKey, error) {
	secret, err := GenerateKeySecret()
	if err != nil {
		return model.APIKey{}, err
	}

	key, err := s.keys.Create(ctx, model.APIKey{
		Name:      name,
		Key:       secret,
		ProjectID: projectID,
	})
	if err != nil {
		return model.APIKey{}, fmt.Errorf("issue api key %q: %w", name, err)
	}
	return key, nil
}

// GenerateKeySecret produces an opaque key secret: the "lk_" prefix followed
// by 32 random bytes in unpadded URL-safe base64.
func GenerateKeySecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate key secret: %w", err)
	}
	return keySecretPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}
