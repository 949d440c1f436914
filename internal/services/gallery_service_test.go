package services

import (
	"context"
	"os"
	"testing"

	"github.com/ourgarden/backend/internal/models"
	"github.com/ourgarden/backend/pkg/garden"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGalleryUploadListDelete(t *testing.T) {
	store, dir := setupStore(t)
	svc := NewGalleryService(setupDB(t), store, DefaultUploadLimits).WithClock(fixedClock())
	ctx := context.Background()

	imgs, err := svc.Upload(ctx, []Upload{pngUpload("summer_beach-day.png"), pngUpload("dir/cat.png")}, "pets")
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	assert.Equal(t, "summer beach day", imgs[0].Caption)
	assert.Equal(t, "cat", imgs[1].Caption)
	assert.Equal(t, "pets", imgs[0].Category)
	assert.Equal(t, 2, countFiles(t, dir))

	byCategory, err := svc.List(ctx, &garden.ContentFilter{Category: garden.Ptr("pets")})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	byCaption, err := svc.List(ctx, &garden.ContentFilter{Search: garden.Ptr("BEACH")})
	require.NoError(t, err)
	require.Len(t, byCaption, 1)
	assert.Equal(t, imgs[0].ID, byCaption[0].ID)

	updated, err := svc.Update(ctx, imgs[1].ID, garden.GalleryPatch{Caption: garden.Ptr("Mochi"), TakenAt: garden.Ptr("2024-02-14")})
	require.NoError(t, err)
	assert.Equal(t, "Mochi", updated.Caption)
	require.NotNil(t, updated.TakenAt)

	require.NoError(t, svc.Delete(ctx, imgs[0].ID))
	_, statErr := os.Stat(fileForURL(dir, imgs[0].URL))
	assert.True(t, os.IsNotExist(statErr))
	assert.ErrorIs(t, svc.Delete(ctx, imgs[0].ID), garden.ErrNotFound)
	assert.Equal(t, 1, countFiles(t, dir))
}

func TestGalleryUploadRejectsWholeBatch(t *testing.T) {
	store, dir := setupStore(t)
	db := setupDB(t)
	svc := NewGalleryService(db, store, UploadLimits{MaxFiles: 2, MaxFileSize: 1 << 20}).WithClock(fixedClock())
	ctx := context.Background()

	_, err := svc.Upload(ctx, []Upload{pngUpload("a.png"), pngUpload("b.png"), pngUpload("c.png")}, "")
	assert.ErrorIs(t, err, garden.ErrUpload)

	_, err = svc.Upload(ctx, []Upload{pngUpload("a.png"), {Filename: "empty.png"}}, "")
	assert.ErrorIs(t, err, garden.ErrUpload)

	var count int64
	require.NoError(t, db.Model(&models.GalleryImage{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, 0, countFiles(t, dir))
}

func TestGalleryDeleteToleratesMissingFile(t *testing.T) {
	store, dir := setupStore(t)
	svc := NewGalleryService(setupDB(t), store, DefaultUploadLimits)
	ctx := context.Background()

	imgs, err := svc.Upload(ctx, []Upload{pngUpload("a.png")}, "")
	require.NoError(t, err)
	require.NoError(t, os.Remove(fileForURL(dir, imgs[0].URL)))

	require.NoError(t, svc.Delete(ctx, imgs[0].ID))
	_, err = svc.Get(ctx, imgs[0].ID)
	assert.ErrorIs(t, err, garden.ErrNotFound)
}
