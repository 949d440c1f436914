// Package state holds the process-wide list of memories. The list is
// refreshed wholesale after every mutation instead of being patched, so it
// cannot drift from what the repository holds.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ourgarden/backend/pkg/client"
	"github.com/ourgarden/backend/pkg/garden"
	"github.com/ourgarden/backend/pkg/repository"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a short user-facing message, e.g. a toast.
type Notification struct {
	Level   Level
	Message string
}

type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// PartialFailureError reports a memory that was created while its image
// upload failed. The memory is kept.
type PartialFailureError struct {
	Memory *garden.Memory
	Err    error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("memory %q was saved but its images were not uploaded: %v", e.Memory.Title, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

type Store struct {
	repo   repository.MemoryRepository
	notify Notifier

	mu       sync.RWMutex
	memories []garden.Memory
	lastErr  error
	loading  bool
	open     bool
	// gen changes on every Start and Close; results carrying an older gen
	// are dropped
	gen     uint64
	subs    map[int]func([]garden.Memory)
	nextSub int
}

type Option func(*Store)

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notify = n }
}

func New(repo repository.MemoryRepository, opts ...Option) *Store {
	s := &Store{
		repo:   repo,
		notify: NotifierFunc(func(Notification) {}),
		subs:   make(map[int]func([]garden.Memory)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store and populates it.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	s.open = true
	s.gen++
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Close clears the cached state. Responses to calls still in flight are
// ignored.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	s.gen++
	s.memories = nil
	s.lastErr = nil
	s.loading = false
}

// Memories returns a copy of the cached list.
func (s *Store) Memories() []garden.Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]garden.Memory(nil), s.memories...)
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError is the error of the most recent failed call, cleared by the
// next successful refresh.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Subscribe registers fn to receive every refreshed list. The returned func
// unregisters it.
func (s *Store) Subscribe(fn func([]garden.Memory)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Refresh replaces the cached list with the repository's.
func (s *Store) Refresh(ctx context.Context) error {
	gen, ok := s.begin()
	if !ok {
		return nil
	}
	list, err := s.repo.List(ctx, nil)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		slog.Debug("dropping stale refresh")
		return nil
	}
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		return s.fail(gen, "Failed to load memories", err)
	}
	s.memories = list
	s.lastErr = nil
	subs := make([]func([]garden.Memory), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(append([]garden.Memory(nil), list...))
	}
	return nil
}

func (s *Store) Create(ctx context.Context, dto garden.MemoryDTO) (*garden.Memory, error) {
	gen := s.current()
	m, err := s.repo.Create(ctx, dto)
	if err != nil {
		return nil, s.fail(gen, "Failed to create memory", err)
	}
	return m, s.done(ctx, gen, "Memory created")
}

// CreateWithImages creates the memory, then uploads files to it. If only the
// upload fails the memory stays and a *PartialFailureError is returned
// together with it.
func (s *Store) CreateWithImages(ctx context.Context, dto garden.MemoryDTO, files []garden.Upload) (*garden.Memory, error) {
	gen := s.current()
	m, err := s.repo.Create(ctx, dto)
	if err != nil {
		return nil, s.fail(gen, "Failed to create memory", err)
	}
	if len(files) > 0 {
		if _, err := s.repo.AttachImages(ctx, m.ID, files); err != nil {
			if rerr := s.Refresh(ctx); rerr != nil {
				slog.Warn("refresh after partial create failed", "memory", m.ID, "error", rerr)
			}
			return m, s.fail(gen, "Memory saved, but uploading images failed", &PartialFailureError{Memory: m, Err: err})
		}
	}
	if err := s.done(ctx, gen, "Memory created"); err != nil {
		return m, err
	}
	// the refreshed copy includes the attached images
	for _, cached := range s.Memories() {
		if cached.ID == m.ID {
			return &cached, nil
		}
	}
	return m, nil
}

func (s *Store) Update(ctx context.Context, id string, patch garden.MemoryPatch) (*garden.Memory, error) {
	gen := s.current()
	m, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, s.fail(gen, "Failed to update memory", err)
	}
	return m, s.done(ctx, gen, "Memory updated")
}

func (s *Store) Remove(ctx context.Context, id string) error {
	gen := s.current()
	if err := s.repo.Remove(ctx, id); err != nil {
		return s.fail(gen, "Failed to delete memory", err)
	}
	return s.done(ctx, gen, "Memory deleted")
}

func (s *Store) AttachImages(ctx context.Context, id string, files []garden.Upload) ([]garden.MemoryImage, error) {
	gen := s.current()
	imgs, err := s.repo.AttachImages(ctx, id, files)
	if err != nil {
		return nil, s.fail(gen, "Failed to upload images", err)
	}
	return imgs, s.done(ctx, gen, "Images uploaded")
}

func (s *Store) DetachImage(ctx context.Context, id, imageID string) error {
	gen := s.current()
	if err := s.repo.DetachImage(ctx, id, imageID); err != nil {
		return s.fail(gen, "Failed to delete image", err)
	}
	return s.done(ctx, gen, "Image deleted")
}

func (s *Store) begin() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return 0, false
	}
	s.loading = true
	return s.gen, true
}

func (s *Store) current() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// live reports whether a call started under gen may still touch the state.
func (s *Store) live(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open && s.gen == gen
}

// done refreshes after a successful mutation and announces it, unless the
// store was closed or restarted in the meantime.
func (s *Store) done(ctx context.Context, gen uint64, msg string) error {
	if !s.live(gen) {
		return nil
	}
	if err := s.Refresh(ctx); err != nil {
		return err
	}
	s.notify.Notify(Notification{Level: LevelSuccess, Message: msg})
	return nil
}

// fail records err, emits an error notification and returns err unchanged so
// callers can react too. Failures from a closed or restarted store are only
// returned.
func (s *Store) fail(gen uint64, prefix string, err error) error {
	s.mu.Lock()
	live := gen == s.gen && s.open
	if live {
		s.lastErr = err
	}
	s.mu.Unlock()
	if !live {
		return err
	}
	s.notify.Notify(Notification{Level: LevelError, Message: prefix + ": " + Describe(err)})
	return err
}

// Describe turns err into a message fit for display.
func Describe(err error) string {
	var partial *PartialFailureError
	if errors.As(err, &partial) {
		err = partial.Err
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var fe *garden.FieldError
	if errors.As(err, &fe) {
		return fe.Error()
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "the request was cancelled"
	case errors.Is(err, garden.ErrNotFound):
		return "not found"
	}
	return err.Error()
}
