package driven

import (
	"context"
	"errors"

	"github.com/leakguardhq/leakguard/internal/domain/model"
)

// Sentinel errors returned by ProjectStore implementations.
var (
	// ErrProjectNotFound indicates the requested project does not exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrProjectAlreadyExists indicates a project with the same short code
	// already exists.
	ErrProjectAlreadyExists = errors.New("project already exists")
)

// ProjectStore defines the driven port for project persistence.
// Create returns ErrProjectAlreadyExists on a duplicate short code.
// Update and Delete return ErrProjectNotFound if the project does not exist.
// GetByID and GetByProxySlug return nil, nil on a miss: an absent project is
// an expected outcome for lookups, not an error.
type ProjectStore interface {
	Create(ctx context.Context, project model.Project) (model.Project, error)
	GetByID(ctx context.Context, id string) (*model.Project, error)
	GetByProxySlug(ctx context.Context, slug string) (*model.Project, error)
	List(ctx context.Context, offset, limit int) ([]model.Project, error)
	Update(ctx context.Context, project model.Project) (model.Project, error)
	Delete(ctx context.Context, id string) error
}
