package state

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/ourgarden/backend/pkg/garden"
	"github.com/ourgarden/backend/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type recorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return Notification{}
	}
	return r.notes[len(r.notes)-1]
}

func newStore(t *testing.T, repo repository.MemoryRepository) (*Store, *recorder) {
	t.Helper()
	rec := &recorder{}
	s := New(repo, WithNotifier(rec))
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Close)
	return s, rec
}

func local() *repository.LocalMemories {
	return repository.NewLocalMemories(repository.NewMemoryKV(), repository.WithLatency(0))
}

func TestMutationsRefreshWholesale(t *testing.T) {
	s, rec := newStore(t, local())
	ctx := context.Background()
	assert.Empty(t, s.Memories())

	var seen [][]garden.Memory
	unsubscribe := s.Subscribe(func(ms []garden.Memory) { seen = append(seen, ms) })

	m, err := s.Create(ctx, garden.MemoryDTO{Title: "Picnic", Date: "2024-04-01", Category: "Random"})
	require.NoError(t, err)
	require.Len(t, s.Memories(), 1)
	assert.Equal(t, LevelSuccess, rec.last().Level)

	_, err = s.Update(ctx, m.ID, garden.MemoryPatch{Quote: garden.Ptr("lovely")})
	require.NoError(t, err)
	assert.Equal(t, "lovely", s.Memories()[0].Quote)

	require.NoError(t, s.Remove(ctx, m.ID))
	assert.Empty(t, s.Memories())

	require.Len(t, seen, 3)
	assert.Len(t, seen[0], 1)
	assert.Empty(t, seen[2])

	unsubscribe()
	_, err = s.Create(ctx, garden.MemoryDTO{Title: "Later", Date: "2024-04-02", Category: "Random"})
	require.NoError(t, err)
	assert.Len(t, seen, 3)
}

func TestErrorsAreStoredNotifiedAndReturned(t *testing.T) {
	s, rec := newStore(t, local())
	ctx := context.Background()

	_, err := s.Create(ctx, garden.MemoryDTO{Date: "2024-04-01", Category: "Random"})
	require.ErrorIs(t, err, garden.ErrValidation)
	assert.Equal(t, err, s.LastError())
	assert.Equal(t, LevelError, rec.last().Level)
	assert.Contains(t, rec.last().Message, "title")

	err = s.Remove(ctx, "missing")
	assert.ErrorIs(t, err, garden.ErrNotFound)

	// a successful refresh clears the stored error
	require.NoError(t, s.Refresh(ctx))
	assert.NoError(t, s.LastError())
}

// failingAttach persists memories but rejects every upload.
type failingAttach struct {
	repository.MemoryRepository
}

func (failingAttach) AttachImages(context.Context, string, []garden.Upload) ([]garden.MemoryImage, error) {
	return nil, errors.New("disk full")
}

func TestCreateWithImagesPartialFailure(t *testing.T) {
	s, rec := newStore(t, failingAttach{local()})
	ctx := context.Background()

	m, err := s.CreateWithImages(ctx, garden.MemoryDTO{Title: "Beach", Date: "2024-06-01", Category: "Travel"},
		[]garden.Upload{{Filename: "a.png", Data: pngHeader}})

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	require.NotNil(t, m)
	assert.Equal(t, m.ID, partial.Memory.ID)
	assert.Len(t, s.Memories(), 1, "the memory is kept")
	assert.Equal(t, LevelError, rec.last().Level)
	assert.Contains(t, rec.last().Message, "disk full")
}

func TestCreateWithImages(t *testing.T) {
	s, _ := newStore(t, local())
	m, err := s.CreateWithImages(context.Background(), garden.MemoryDTO{Title: "Beach", Date: "2024-06-01", Category: "Travel"},
		[]garden.Upload{{Filename: "a.png", Data: pngHeader}, {Filename: "b.png", Data: pngHeader}})
	require.NoError(t, err)
	assert.Len(t, m.Images, 2)
}

func TestImageActions(t *testing.T) {
	s, _ := newStore(t, local())
	ctx := context.Background()
	m, err := s.Create(ctx, garden.MemoryDTO{Title: "Beach", Date: "2024-06-01", Category: "Travel"})
	require.NoError(t, err)

	imgs, err := s.AttachImages(ctx, m.ID, []garden.Upload{{Filename: "a.png", Data: pngHeader}})
	require.NoError(t, err)
	assert.Len(t, s.Memories()[0].Images, 1)

	require.NoError(t, s.DetachImage(ctx, m.ID, imgs[0].ID))
	assert.Empty(t, s.Memories()[0].Images)
}

// brokenAfterCreate accepts a memory, then fails uploads and listing.
type brokenAfterCreate struct {
	failingAttach
	listErr error
}

func (b *brokenAfterCreate) List(context.Context, *garden.MemoryFilter) ([]garden.Memory, error) {
	return nil, b.listErr
}

func TestCreateWithImagesReportsFailedRefresh(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	rec := &recorder{}
	s := New(&brokenAfterCreate{failingAttach: failingAttach{local()}, listErr: errors.New("connection reset")}, WithNotifier(rec))
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()

	m, err := s.CreateWithImages(context.Background(), garden.MemoryDTO{Title: "Beach", Date: "2024-06-01", Category: "Travel"},
		[]garden.Upload{{Filename: "a.png", Data: pngHeader}})
	require.NotNil(t, m)
	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)

	assert.Contains(t, logs.String(), "refresh after partial create failed")
	assert.Contains(t, logs.String(), "connection reset")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.notes, 2)
	assert.Contains(t, rec.notes[0].Message, "connection reset")
	assert.Contains(t, rec.notes[1].Message, "disk full")
}

// gatedList blocks List until release is closed.
type gatedList struct {
	repository.MemoryRepository
	entered chan struct{}
	release chan struct{}
}

func (g *gatedList) List(ctx context.Context, f *garden.MemoryFilter) ([]garden.Memory, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.MemoryRepository.List(ctx, f)
}

func TestLateRefreshAfterCloseIsDropped(t *testing.T) {
	repo := local()
	_, err := repo.Create(context.Background(), garden.MemoryDTO{Title: "Seed", Date: "2024-01-01", Category: "Random"})
	require.NoError(t, err)

	gated := &gatedList{MemoryRepository: repo, entered: make(chan struct{}, 1), release: make(chan struct{})}
	rec := &recorder{}
	s := New(gated, WithNotifier(rec))

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()
	<-gated.entered
	assert.True(t, s.Loading())

	s.Close()
	close(gated.release)
	require.NoError(t, <-done)

	assert.Empty(t, s.Memories())
	assert.False(t, s.Loading())
	assert.Empty(t, rec.notes)
}

func TestClosedStoreIgnoresRefresh(t *testing.T) {
	repo := local()
	s := New(repo)
	require.NoError(t, s.Refresh(context.Background()))
	assert.Nil(t, s.Memories())

	require.NoError(t, s.Start(context.Background()))
	s.Close()
	_, err := repo.Create(context.Background(), garden.MemoryDTO{Title: "x", Date: "2024-01-01", Category: "Random"})
	require.NoError(t, err)
	require.NoError(t, s.Refresh(context.Background()))
	assert.Nil(t, s.Memories())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "title: is required", Describe(garden.NewFieldError("title", "is required")))
	assert.Equal(t, "the request was cancelled", Describe(context.Canceled))
	assert.Equal(t, "disk full", Describe(&PartialFailureError{Memory: &garden.Memory{}, Err: errors.New("disk full")}))
}
