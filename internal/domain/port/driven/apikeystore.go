package driven

import (
	"context"
	"errors"
	"time"

	"github.com/leakguardhq/leakguard/internal/domain/model"
)

// ErrAPIKeyNotFound indicates no API key matches the given identifier or
// secret value.
var ErrAPIKeyNotFound = errors.New("api key not found")

// APIKeyStore defines the driven port for API key persistence.
// GetByKey performs an exact match on the secret value and returns
// ErrAPIKeyNotFound on a miss; it is the credential resolver for the
// ingestion pipeline.
type APIKeyStore interface {
	Create(ctx context.Context, key model.APIKey) (model.APIKey, error)
	GetByKey(ctx context.Context, secret string) (*model.APIKey, error)
	List(ctx context.Context, offset, limit int) ([]model.APIKey, error)
	Delete(ctx context.Context, id string) error

	// TouchLastUsed sets the key's last-used time. Usage tracking is
	// advisory; callers treat failures as non-fatal.
	TouchLastUsed(ctx context.Context, id string, t time.Time) error
}
