package repository

import (
	"context"
	"errors"

	"github.com/ourgarden/backend/pkg/client"
	"github.com/ourgarden/backend/pkg/garden"
)

// Remote adapts one client resource to the Repository contract.
type Remote[E, D, P any, F client.Filter] struct {
	res *client.Resource[E, D, P, F]
}

func NewRemote[E, D, P any, F client.Filter](res *client.Resource[E, D, P, F]) *Remote[E, D, P, F] {
	return &Remote[E, D, P, F]{res: res}
}

func (r *Remote[E, D, P, F]) List(ctx context.Context, filter F) ([]E, error) {
	return r.res.List(ctx, filter)
}

// GetByID maps a 404 to (nil, nil).
func (r *Remote[E, D, P, F]) GetByID(ctx context.Context, id string) (*E, error) {
	e, err := r.res.Get(ctx, id)
	if errors.Is(err, garden.ErrNotFound) {
		return nil, nil
	}
	return e, err
}

func (r *Remote[E, D, P, F]) Create(ctx context.Context, dto D) (*E, error) {
	return r.res.Create(ctx, dto)
}

func (r *Remote[E, D, P, F]) Update(ctx context.Context, id string, patch P) (*E, error) {
	return r.res.Update(ctx, id, patch)
}

func (r *Remote[E, D, P, F]) Remove(ctx context.Context, id string) error {
	return r.res.Delete(ctx, id)
}

// RemoteMemories is the API-backed MemoryRepository.
type RemoteMemories struct {
	*Remote[garden.Memory, garden.MemoryDTO, garden.MemoryPatch, *garden.MemoryFilter]
	api *client.MemoryAPI
}

func NewRemoteMemories(c *client.Client) *RemoteMemories {
	return &RemoteMemories{Remote: NewRemote(c.Memories.Resource), api: c.Memories}
}

func (r *RemoteMemories) AttachImages(ctx context.Context, id string, files []garden.Upload) ([]garden.MemoryImage, error) {
	return r.api.UploadImages(ctx, id, files)
}

func (r *RemoteMemories) DetachImage(ctx context.Context, id, imageID string) error {
	return r.api.DeleteImage(ctx, id, imageID)
}

var _ MemoryRepository = (*RemoteMemories)(nil)
