package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ourgarden/backend/pkg/garden"
	"github.com/ourgarden/backend/pkg/slug"
)

// DefaultLatency is the simulated round trip of every LocalMemories call.
const DefaultLatency = 150 * time.Millisecond

const defaultMemoriesKey = "garden:memories"

// LocalMemories keeps the whole memory collection as one JSON document in a
// KV. Every call sleeps for the configured latency first so callers cannot
// depend on synchronous completion. Attached images are stored inline as
// data URIs.
type LocalMemories struct {
	kv      KV
	key     string
	latency time.Duration
	limits  garden.UploadLimits
	now     func() time.Time
	slugs   *slug.Generator

	// mu serializes read-modify-write cycles on the document
	mu sync.Mutex
}

type LocalOption func(*LocalMemories)

// WithLatency sets the simulated delay; zero disables it.
func WithLatency(d time.Duration) LocalOption {
	return func(l *LocalMemories) { l.latency = d }
}

func WithKey(key string) LocalOption {
	return func(l *LocalMemories) { l.key = key }
}

func WithLimits(limits garden.UploadLimits) LocalOption {
	return func(l *LocalMemories) { l.limits = limits }
}

func WithClock(now func() time.Time) LocalOption {
	return func(l *LocalMemories) {
		l.now = now
		l.slugs = slug.NewGeneratorWithClock(now)
	}
}

func NewLocalMemories(kv KV, opts ...LocalOption) *LocalMemories {
	l := &LocalMemories{
		kv:      kv,
		key:     defaultMemoriesKey,
		latency: DefaultLatency,
		limits:  garden.DefaultUploadLimits,
		now:     time.Now,
		slugs:   slug.NewGenerator(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *LocalMemories) List(ctx context.Context, filter *garden.MemoryFilter) ([]garden.Memory, error) {
	all, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]garden.Memory, 0, len(all))
	for _, m := range all {
		if filter.Matches(m) {
			out = append(out, m)
		}
	}
	garden.SortMemories(out)
	return out, nil
}

// GetByID accepts an id or a slug, like the API does.
func (l *LocalMemories) GetByID(ctx context.Context, id string) (*garden.Memory, error) {
	all, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id || (all[i].Slug != "" && all[i].Slug == id) {
			return &all[i], nil
		}
	}
	return nil, nil
}

func (l *LocalMemories) Create(ctx context.Context, dto garden.MemoryDTO) (*garden.Memory, error) {
	dto.Normalize()
	date, err := dto.Validate()
	if err != nil {
		return nil, err
	}
	if err := l.limits.CheckCapacity(0, len(dto.Images)); err != nil {
		return nil, err
	}

	var created garden.Memory
	err = l.mutate(ctx, func(all []garden.Memory) ([]garden.Memory, error) {
		now := l.now().UTC()
		m := garden.Memory{
			ID:        uuid.NewString(),
			Slug:      l.slugFor(dto.Slug, dto.Title),
			Title:     dto.Title,
			Date:      date,
			Category:  dto.Category,
			Tags:      dto.Tags,
			Mood:      dto.Mood,
			Quote:     dto.Quote,
			Story:     dto.Story,
			Location:  dto.Location,
			Images:    []garden.MemoryImage{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if slugTaken(all, m.Slug, "") {
			return nil, garden.NewFieldError("slug", "is already taken")
		}
		for i, img := range dto.Images {
			alt := img.Alt
			if alt == "" {
				alt = m.Title
			}
			m.Images = append(m.Images, garden.MemoryImage{
				ID: uuid.NewString(), MemoryID: m.ID, URL: img.URL, Alt: alt, SortOrder: i, CreatedAt: now,
			})
		}
		created = m
		return append(all, m), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (l *LocalMemories) Update(ctx context.Context, id string, patch garden.MemoryPatch) (*garden.Memory, error) {
	patch.Normalize()

	var updated garden.Memory
	err := l.mutate(ctx, func(all []garden.Memory) ([]garden.Memory, error) {
		i := indexOf(all, id)
		if i < 0 {
			return nil, fmt.Errorf("memory %w", garden.ErrNotFound)
		}
		m := all[i]
		if err := patch.Apply(&m); err != nil {
			return nil, err
		}
		if patch.Slug != nil {
			m.Slug = l.slugFor(*patch.Slug, m.Title)
			if slugTaken(all, m.Slug, m.ID) {
				return nil, garden.NewFieldError("slug", "is already taken")
			}
		}
		m.UpdatedAt = l.next(m.UpdatedAt)
		all[i] = m
		updated = m
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Remove drops the memory together with its inline images.
func (l *LocalMemories) Remove(ctx context.Context, id string) error {
	return l.mutate(ctx, func(all []garden.Memory) ([]garden.Memory, error) {
		i := indexOf(all, id)
		if i < 0 {
			return nil, fmt.Errorf("memory %w", garden.ErrNotFound)
		}
		return append(all[:i], all[i+1:]...), nil
	})
}

// AttachImages validates the whole batch, then appends the files as data
// URIs continuing the memory's sort order.
func (l *LocalMemories) AttachImages(ctx context.Context, id string, files []garden.Upload) ([]garden.MemoryImage, error) {
	types, err := l.limits.CheckBatch(files)
	if err != nil {
		return nil, err
	}

	var added []garden.MemoryImage
	err = l.mutate(ctx, func(all []garden.Memory) ([]garden.Memory, error) {
		i := indexOf(all, id)
		if i < 0 {
			return nil, fmt.Errorf("memory %w", garden.ErrNotFound)
		}
		m := all[i]
		if err := l.limits.CheckCapacity(len(m.Images), len(files)); err != nil {
			return nil, err
		}
		next := 0
		for _, img := range m.Images {
			if img.SortOrder >= next {
				next = img.SortOrder + 1
			}
		}
		now := l.next(m.UpdatedAt)
		images := append([]garden.MemoryImage(nil), m.Images...)
		for j, f := range files {
			img := garden.MemoryImage{
				ID:        uuid.NewString(),
				MemoryID:  m.ID,
				URL:       "data:" + types[j] + ";base64," + base64.StdEncoding.EncodeToString(f.Data),
				Alt:       m.Title,
				SortOrder: next + j,
				CreatedAt: now,
			}
			images = append(images, img)
			added = append(added, img)
		}
		m.Images = images
		m.UpdatedAt = now
		all[i] = m
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (l *LocalMemories) DetachImage(ctx context.Context, id, imageID string) error {
	return l.mutate(ctx, func(all []garden.Memory) ([]garden.Memory, error) {
		i := indexOf(all, id)
		if i < 0 {
			return nil, fmt.Errorf("memory %w", garden.ErrNotFound)
		}
		m := all[i]
		kept := make([]garden.MemoryImage, 0, len(m.Images))
		for _, img := range m.Images {
			if img.ID != imageID {
				kept = append(kept, img)
			}
		}
		if len(kept) == len(m.Images) {
			return nil, fmt.Errorf("image %w", garden.ErrNotFound)
		}
		m.Images = kept
		m.UpdatedAt = l.next(m.UpdatedAt)
		all[i] = m
		return all, nil
	})
}

// wait simulates the round trip and gives up early when ctx ends.
func (l *LocalMemories) wait(ctx context.Context) error {
	if l.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(l.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (l *LocalMemories) read(ctx context.Context) ([]garden.Memory, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// mutate applies fn to the stored collection and writes the result back.
// Nothing is written when fn fails.
func (l *LocalMemories) mutate(ctx context.Context, fn func([]garden.Memory) ([]garden.Memory, error)) error {
	if err := l.wait(ctx); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.load(ctx)
	if err != nil {
		return err
	}
	all, err = fn(all)
	if err != nil {
		return err
	}
	data, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("%w: encode memories: %w", garden.ErrTransientIO, err)
	}
	if err := l.kv.Set(ctx, l.key, data); err != nil {
		return fmt.Errorf("%w: write memories: %w", garden.ErrTransientIO, err)
	}
	return nil
}

func (l *LocalMemories) load(ctx context.Context) ([]garden.Memory, error) {
	data, ok, err := l.kv.Get(ctx, l.key)
	if err != nil {
		return nil, fmt.Errorf("%w: read memories: %w", garden.ErrTransientIO, err)
	}
	if !ok {
		return []garden.Memory{}, nil
	}
	var all []garden.Memory
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("%w: decode memories: %w", garden.ErrTransientIO, err)
	}
	for i := range all {
		if all[i].Images == nil {
			all[i].Images = []garden.MemoryImage{}
		}
	}
	return all, nil
}

func (l *LocalMemories) slugFor(explicit, title string) string {
	if b := slug.Base(explicit); b != "" {
		return b
	}
	return l.slugs.Generate(title)
}

// next returns the current time, bumped past prev so updates strictly
// increase updatedAt.
func (l *LocalMemories) next(prev time.Time) time.Time {
	now := l.now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

func indexOf(all []garden.Memory, id string) int {
	for i := range all {
		if all[i].ID == id {
			return i
		}
	}
	return -1
}

func slugTaken(all []garden.Memory, s, exceptID string) bool {
	for _, m := range all {
		if m.Slug == s && m.ID != exceptID {
			return true
		}
	}
	return false
}

var _ MemoryRepository = (*LocalMemories)(nil)
