// Package repository decouples callers from how garden content is stored.
// Remote talks to the HTTP API; LocalMemories keeps a collection in a
// key-value store for offline development and tests. Both honor the same
// contract.
package repository

import (
	"context"

	"github.com/ourgarden/backend/pkg/garden"
)

// Repository is the CRUD contract over one entity type.
//
// List never fails on an empty result. GetByID returns (nil, nil) for an
// unknown id. Update and Remove report garden.ErrNotFound for an unknown id,
// so a second Remove of the same id fails.
type Repository[E, D, P, F any] interface {
	List(ctx context.Context, filter F) ([]E, error)
	GetByID(ctx context.Context, id string) (*E, error)
	Create(ctx context.Context, dto D) (*E, error)
	Update(ctx context.Context, id string, patch P) (*E, error)
	Remove(ctx context.Context, id string) error
}

// MemoryRepository adds the image lifecycle.
type MemoryRepository interface {
	Repository[garden.Memory, garden.MemoryDTO, garden.MemoryPatch, *garden.MemoryFilter]
	AttachImages(ctx context.Context, id string, files []garden.Upload) ([]garden.MemoryImage, error)
	DetachImage(ctx context.Context, id, imageID string) error
}
