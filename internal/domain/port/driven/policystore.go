package driven

import (
	"context"
	"errors"

	"github.com/leakguardhq/leakguard/internal/domain/model"
)

// Sentinel errors returned by PolicyStore implementations.
var (
	// ErrPolicyNotFound indicates the requested policy does not exist.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrPolicyAlreadyExists indicates a policy with the same external
	// identifier already exists.
	ErrPolicyAlreadyExists = errors.New("policy already exists")
)

// PolicyStore defines the driven port for policy persistence.
// Get matches either the primary id or the external policy identifier and
// returns nil, nil on a miss.
type PolicyStore interface {
	Create(ctx context.Context, policy model.Policy) (model.Policy, error)
	Get(ctx context.Context, id string) (*model.Policy, error)
	List(ctx context.Context, offset, limit int) ([]model.Policy, error)
	Update(ctx context.Context, policy model.Policy) (model.Policy, error)
	Delete(ctx context.Context, id string) error
}
