package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ourgarden/backend/pkg/garden"
)

// Filter encodes the set fields of a list filter. A nil filter must encode
// to an empty query.
type Filter interface {
	Query() url.Values
}

// Resource maps the five CRUD calls of one REST collection.
type Resource[E, D, P any, F Filter] struct {
	c    *Client
	path string
}

func newResource[E, D, P any, F Filter](c *Client, path string) *Resource[E, D, P, F] {
	return &Resource[E, D, P, F]{c: c, path: path}
}

func (r *Resource[E, D, P, F]) List(ctx context.Context, filter F) ([]E, error) {
	var out []E
	if err := r.c.do(ctx, http.MethodGet, r.path, filter.Query(), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []E{}
	}
	return out, nil
}

func (r *Resource[E, D, P, F]) Get(ctx context.Context, id string) (*E, error) {
	var out E
	if err := r.c.do(ctx, http.MethodGet, r.item(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[E, D, P, F]) Create(ctx context.Context, dto D) (*E, error) {
	var out E
	if err := r.c.do(ctx, http.MethodPost, r.path, nil, dto, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[E, D, P, F]) Update(ctx context.Context, id string, patch P) (*E, error) {
	var out E
	if err := r.c.do(ctx, http.MethodPatch, r.item(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[E, D, P, F]) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, http.MethodDelete, r.item(id), nil, nil, nil)
}

func (r *Resource[E, D, P, F]) item(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

type MemoryAPI struct {
	*Resource[garden.Memory, garden.MemoryDTO, garden.MemoryPatch, *garden.MemoryFilter]
}

// UploadImages attaches files to a memory in order, as multipart field
// "images".
func (m *MemoryAPI) UploadImages(ctx context.Context, id string, files []garden.Upload) ([]garden.MemoryImage, error) {
	var out []garden.MemoryImage
	if err := m.c.upload(ctx, m.item(id)+"/images", "images", files, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MemoryAPI) DeleteImage(ctx context.Context, id, imageID string) error {
	return m.c.do(ctx, http.MethodDelete, m.item(id)+"/images/"+url.PathEscape(imageID), nil, nil, nil)
}

// GalleryAPI has no JSON create; pictures enter through Upload.
type GalleryAPI struct {
	res *Resource[garden.GalleryImage, struct{}, garden.GalleryPatch, *garden.ContentFilter]
}

func (g *GalleryAPI) List(ctx context.Context, filter *garden.ContentFilter) ([]garden.GalleryImage, error) {
	return g.res.List(ctx, filter)
}

func (g *GalleryAPI) Get(ctx context.Context, id string) (*garden.GalleryImage, error) {
	return g.res.Get(ctx, id)
}

// Upload sends files as multipart field "files"; a non-empty category is
// applied to every file.
func (g *GalleryAPI) Upload(ctx context.Context, files []garden.Upload, category string) ([]garden.GalleryImage, error) {
	var values map[string]string
	if category != "" {
		values = map[string]string{"category": category}
	}
	var out []garden.GalleryImage
	if err := g.res.c.upload(ctx, g.res.path, "files", files, values, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GalleryAPI) Update(ctx context.Context, id string, patch garden.GalleryPatch) (*garden.GalleryImage, error) {
	return g.res.Update(ctx, id, patch)
}

func (g *GalleryAPI) Delete(ctx context.Context, id string) error {
	return g.res.Delete(ctx, id)
}

type ContactAPI struct {
	*Resource[garden.ContactMessage, garden.ContactDTO, garden.ContactPatch, *garden.ContentFilter]
}

func (a *ContactAPI) MarkRead(ctx context.Context, id string) (*garden.ContactMessage, error) {
	var out garden.ContactMessage
	if err := a.c.do(ctx, http.MethodPatch, a.item(id)+"/read", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
