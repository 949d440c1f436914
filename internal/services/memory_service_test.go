package services

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/ourgarden/backend/internal/models"
	"github.com/ourgarden/backend/internal/storage"
	"github.com/ourgarden/backend/pkg/garden"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryService(t *testing.T) (*MemoryService, string) {
	t.Helper()
	store, dir := setupStore(t)
	return NewMemoryService(setupDB(t), store, DefaultUploadLimits).WithClock(fixedClock()), dir
}

func firstMeeting() garden.MemoryDTO {
	return garden.MemoryDTO{
		Title:    "Our First Meeting",
		Date:     "2023-01-15",
		Category: garden.CategoryFirstDate,
		Tags:     garden.Tags{"intro", "coffee"},
	}
}

func TestMemoryCreate(t *testing.T) {
	svc, _ := newMemoryService(t)

	m, err := svc.Create(context.Background(), firstMeeting())
	require.NoError(t, err)

	assert.NotEmpty(t, m.ID)
	assert.True(t, strings.HasPrefix(m.Slug, "our-first-meeting-"), m.Slug)
	assert.Equal(t, garden.Tags{"intro", "coffee"}, m.Tags)
	assert.NotNil(t, m.Images)
	assert.Empty(t, m.Images)
	assert.Equal(t, m.CreatedAt, m.UpdatedAt)
	assert.Equal(t, "2023-01-15", m.Date.Format("2006-01-02"))
}

func TestMemoryCreateMissingTitle(t *testing.T) {
	svc, _ := newMemoryService(t)
	dto := firstMeeting()
	dto.Title = "  "

	_, err := svc.Create(context.Background(), dto)
	require.Error(t, err)
	assert.ErrorIs(t, err, garden.ErrValidation)

	var fe *garden.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "title", fe.Field)

	var count int64
	require.NoError(t, svc.db.Model(&models.Memory{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMemoryCreateDuplicateSlug(t *testing.T) {
	svc, _ := newMemoryService(t)
	dto := firstMeeting()
	dto.Slug = "first"

	_, err := svc.Create(context.Background(), dto)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), dto)
	var fe *garden.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "slug", fe.Field)
}

func TestMemoryCreateWithImageURLs(t *testing.T) {
	svc, _ := newMemoryService(t)
	dto := firstMeeting()
	dto.Images = []garden.ImageDTO{{URL: "https://cdn.example.com/a.jpg"}, {URL: "https://cdn.example.com/b.jpg", Alt: "b"}}

	m, err := svc.Create(context.Background(), dto)
	require.NoError(t, err)
	require.Len(t, m.Images, 2)
	assert.Equal(t, 0, m.Images[0].SortOrder)
	assert.Equal(t, "Our First Meeting", m.Images[0].Alt)
	assert.Equal(t, 1, m.Images[1].SortOrder)
	assert.Equal(t, "b", m.Images[1].Alt)
}

func TestMemoryCreateRejectsEscapingImageURL(t *testing.T) {
	svc, _ := newMemoryService(t)
	dto := firstMeeting()
	dto.Images = []garden.ImageDTO{{URL: "/uploads/../outside.jpg"}}

	_, err := svc.Create(context.Background(), dto)
	var fe *garden.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "url", fe.Field)
}

func TestMemoryWithEscapingImageURLStillDeletes(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()
	m, err := svc.Create(ctx, firstMeeting())
	require.NoError(t, err)

	// rows written before URL validation existed
	bad := []models.MemoryImage{
		{MemoryID: m.ID, URL: "/uploads/../outside.jpg", SortOrder: 0},
		{MemoryID: m.ID, URL: "/uploads/a/../../b.jpg", SortOrder: 1},
	}
	require.NoError(t, svc.db.Create(&bad).Error)

	require.NoError(t, svc.DetachImage(ctx, m.ID, bad[0].ID))
	require.NoError(t, svc.Delete(ctx, m.ID))

	_, err = svc.Get(ctx, m.ID)
	assert.ErrorIs(t, err, garden.ErrNotFound)
}

func TestMemoryGetBySlugAndID(t *testing.T) {
	svc, _ := newMemoryService(t)
	m, err := svc.Create(context.Background(), firstMeeting())
	require.NoError(t, err)

	byID, err := svc.Get(context.Background(), m.ID)
	require.NoError(t, err)
	bySlug, err := svc.Get(context.Background(), m.Slug)
	require.NoError(t, err)
	assert.Equal(t, byID.ID, bySlug.ID)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, garden.ErrNotFound)
}

func TestMemoryAttachAndDetachImages(t *testing.T) {
	svc, dir := newMemoryService(t)
	ctx := context.Background()
	m, err := svc.Create(ctx, firstMeeting())
	require.NoError(t, err)

	imgs, err := svc.AttachImages(ctx, m.ID, []Upload{pngUpload("a.png"), pngUpload("b.png")})
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	assert.Equal(t, 0, imgs[0].SortOrder)
	assert.Equal(t, 1, imgs[1].SortOrder)
	assert.Equal(t, 2, countFiles(t, dir))

	got, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 2)
	assert.True(t, got.UpdatedAt.After(m.UpdatedAt))

	require.NoError(t, svc.DetachImage(ctx, m.ID, imgs[0].ID))
	got, err = svc.Get(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	assert.Equal(t, imgs[1].ID, got.Images[0].ID)

	_, statErr := os.Stat(fileForURL(dir, imgs[0].URL))
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, 1, countFiles(t, dir))

	// sort order keeps growing after a gap
	more, err := svc.AttachImages(ctx, m.ID, []Upload{pngUpload("c.png")})
	require.NoError(t, err)
	assert.Equal(t, 2, more[0].SortOrder)
}

func TestMemoryAttachRejectsBatchAtomically(t *testing.T) {
	svc, dir := newMemoryService(t)
	ctx := context.Background()
	m, err := svc.Create(ctx, firstMeeting())
	require.NoError(t, err)

	bad := Upload{Filename: "notes.txt", Data: []byte("just some text")}
	_, err = svc.AttachImages(ctx, m.ID, []Upload{pngUpload("a.png"), bad})
	assert.ErrorIs(t, err, garden.ErrUpload)

	huge := Upload{Filename: "big.png", Data: append(append([]byte(nil), pngHeader...), make([]byte, DefaultUploadLimits.MaxFileSize)...)}
	_, err = svc.AttachImages(ctx, m.ID, []Upload{huge})
	assert.ErrorIs(t, err, garden.ErrTooLarge)

	_, err = svc.AttachImages(ctx, m.ID, nil)
	assert.ErrorIs(t, err, garden.ErrUpload)

	got, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Images)
	assert.Equal(t, 0, countFiles(t, dir))
}

func TestMemoryAttachCapacity(t *testing.T) {
	store, dir := setupStore(t)
	svc := NewMemoryService(setupDB(t), store, UploadLimits{MaxFiles: 10, MaxFileSize: 1 << 20, MaxPerEntity: 3}).WithClock(fixedClock())
	ctx := context.Background()
	m, err := svc.Create(ctx, firstMeeting())
	require.NoError(t, err)

	_, err = svc.AttachImages(ctx, m.ID, []Upload{pngUpload("a.png"), pngUpload("b.png")})
	require.NoError(t, err)
	_, err = svc.AttachImages(ctx, m.ID, []Upload{pngUpload("c.png"), pngUpload("d.png")})
	assert.ErrorIs(t, err, garden.ErrUpload)
	assert.Equal(t, 2, countFiles(t, dir))
}

func TestMemoryAttachToMissingMemory(t *testing.T) {
	svc, dir := newMemoryService(t)
	_, err := svc.AttachImages(context.Background(), "nope", []Upload{pngUpload("a.png")})
	assert.ErrorIs(t, err, garden.ErrNotFound)
	assert.Equal(t, 0, countFiles(t, dir))
}

func TestMemoryDetachMissingFile(t *testing.T) {
	svc, dir := newMemoryService(t)
	ctx := context.Background()
	m, err := svc.Create(ctx, firstMeeting())
	require.NoError(t, err)
	imgs, err := svc.AttachImages(ctx, m.ID, []Upload{pngUpload("a.png")})
	require.NoError(t, err)

	require.NoError(t, os.Remove(fileForURL(dir, imgs[0].URL)))
	require.NoError(t, svc.DetachImage(ctx, m.ID, imgs[0].ID))

	got, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Images)

	err = svc.DetachImage(ctx, m.ID, imgs[0].ID)
	assert.ErrorIs(t, err, garden.ErrNotFound)
}

func TestMemoryUpdate(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()
	m, err := svc.Create(ctx, firstMeeting())
	require.NoError(t, err)

	got, err := svc.Update(ctx, m.ID, garden.MemoryPatch{Category: garden.Ptr(garden.CategoryAnniversary)})
	require.NoError(t, err)
	assert.Equal(t, m.Title, got.Title)
	assert.Equal(t, garden.CategoryAnniversary, got.Category)
	assert.True(t, got.UpdatedAt.After(m.UpdatedAt))
	assert.Equal(t, m.CreatedAt, got.CreatedAt)

	again, err := svc.Update(ctx, m.ID, garden.MemoryPatch{})
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.After(got.UpdatedAt))

	_, err = svc.Update(ctx, m.ID, garden.MemoryPatch{Title: garden.Ptr("")})
	assert.ErrorIs(t, err, garden.ErrValidation)

	_, err = svc.Update(ctx, "missing", garden.MemoryPatch{Title: garden.Ptr("x")})
	assert.ErrorIs(t, err, garden.ErrNotFound)
}

func TestMemoryListFilters(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()
	for _, dto := range []garden.MemoryDTO{
		{Title: "Beach Adventure", Date: "2023-07-01", Category: garden.CategoryTravel, Tags: garden.Tags{"sea"}},
		{Title: "Random Night Out", Date: "2023-08-01", Category: garden.CategoryRandom, Tags: garden.Tags{"city"}},
		{Title: "Picnic", Date: "2023-06-01", Category: garden.CategoryRandom, Tags: garden.Tags{"beach"}},
	} {
		_, err := svc.Create(ctx, dto)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Random Night Out", all[0].Title)
	assert.Equal(t, "Picnic", all[2].Title)

	none, err := svc.List(ctx, &garden.MemoryFilter{Category: garden.Ptr(garden.CategoryTravel), Search: garden.Ptr("night")})
	require.NoError(t, err)
	assert.Empty(t, none)

	byTag, err := svc.List(ctx, &garden.MemoryFilter{Category: garden.Ptr(garden.CategoryRandom), Search: garden.Ptr("BEACH")})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "Picnic", byTag[0].Title)
}

func TestMemoryListCategoryAndSearchDisjoint(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, garden.MemoryDTO{Title: "Beach Adventure", Date: "2023-07-01", Category: garden.CategoryTravel})
	require.NoError(t, err)
	_, err = svc.Create(ctx, garden.MemoryDTO{Title: "Random Night Out", Date: "2023-08-01", Category: garden.CategoryRandom})
	require.NoError(t, err)

	got, err := svc.List(ctx, &garden.MemoryFilter{Category: garden.Ptr(garden.CategoryRandom), Search: garden.Ptr("beach")})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryDeleteCascades(t *testing.T) {
	svc, dir := newMemoryService(t)
	ctx := context.Background()
	m, err := svc.Create(ctx, firstMeeting())
	require.NoError(t, err)
	_, err = svc.AttachImages(ctx, m.ID, []Upload{pngUpload("a.png"), pngUpload("b.png"), pngUpload("c.png")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, m.ID))
	assert.Equal(t, 0, countFiles(t, dir))

	var count int64
	require.NoError(t, svc.db.Model(&models.MemoryImage{}).Where("memory_id = ?", m.ID).Count(&count).Error)
	assert.Zero(t, count)

	_, err = svc.Get(ctx, m.ID)
	assert.ErrorIs(t, err, garden.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, m.ID), garden.ErrNotFound)
}

// failingStore accepts a number of saves and then fails.
type failingStore struct {
	storage.FileStore
	allow int
}

func (f *failingStore) Save(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	if f.allow == 0 {
		return "", errors.New("disk full")
	}
	f.allow--
	return f.FileStore.Save(ctx, key, contentType, r)
}

func TestMemoryAttachCompensatesPartialWrite(t *testing.T) {
	store, dir := setupStore(t)
	svc := NewMemoryService(setupDB(t), &failingStore{FileStore: store, allow: 1}, DefaultUploadLimits).WithClock(fixedClock())
	ctx := context.Background()
	m, err := svc.Create(ctx, firstMeeting())
	require.NoError(t, err)

	_, err = svc.AttachImages(ctx, m.ID, []Upload{pngUpload("a.png"), pngUpload("b.png")})
	assert.ErrorIs(t, err, garden.ErrTransientIO)
	assert.Equal(t, 0, countFiles(t, dir))

	got, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Images)
}
