package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ourgarden/backend/pkg/garden"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsLifecycle(t *testing.T) {
	svc := NewNewsService(setupDB(t)).WithClock(fixedClock())
	ctx := context.Background()

	older, err := svc.Create(ctx, garden.NewsDTO{Title: "Garden Opens", Content: "hello", Category: "site", PublishedAt: "2024-01-01"})
	require.NoError(t, err)
	newer, err := svc.Create(ctx, garden.NewsDTO{Title: "New Photos", Content: "look", Tags: garden.Tags{"Gallery"}, PublishedAt: "2024-03-01"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(older.Slug, "garden-opens-"))

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)

	bySearch, err := svc.List(ctx, &garden.ContentFilter{Search: garden.Ptr("gallery")})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, newer.ID, bySearch[0].ID)

	byCategory, err := svc.List(ctx, &garden.ContentFilter{Category: garden.Ptr("site")})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)

	got, err := svc.Get(ctx, older.Slug)
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)

	updated, err := svc.Update(ctx, older.ID, garden.NewsPatch{Excerpt: garden.Ptr("short")})
	require.NoError(t, err)
	assert.Equal(t, "Garden Opens", updated.Title)
	assert.Equal(t, "short", updated.Excerpt)
	assert.True(t, updated.UpdatedAt.After(older.UpdatedAt))

	_, err = svc.Create(ctx, garden.NewsDTO{Title: "No body"})
	var fe *garden.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "content", fe.Field)

	require.NoError(t, svc.Delete(ctx, older.ID))
	assert.ErrorIs(t, svc.Delete(ctx, older.ID), garden.ErrNotFound)
}

func TestNewsDefaultsPublishedAtToNow(t *testing.T) {
	svc := NewNewsService(setupDB(t)).WithClock(fixedClock())
	n, err := svc.Create(context.Background(), garden.NewsDTO{Title: "Now", Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, fixedClock()(), n.PublishedAt)
}

func TestJourneyLifecycle(t *testing.T) {
	svc := NewJourneyService(setupDB(t)).WithClock(fixedClock())
	ctx := context.Background()

	first, err := svc.Create(ctx, garden.JourneyDTO{Title: "Met", Date: "2022-02-02", Location: "Café Blau"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, garden.JourneyDTO{Title: "Moved in", Date: "2023-09-01"})
	require.NoError(t, err)

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	found, err := svc.List(ctx, &garden.ContentFilter{Search: garden.Ptr("blau")})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, first.ID, found[0].ID)

	_, err = svc.Create(ctx, garden.JourneyDTO{Title: "Bad", Date: "someday"})
	var fe *garden.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "date", fe.Field)

	updated, err := svc.Update(ctx, first.ID, garden.JourneyPatch{Date: garden.Ptr("2022-03-03")})
	require.NoError(t, err)
	assert.Equal(t, "2022-03-03", updated.Date.Format("2006-01-02"))
	assert.Equal(t, "Met", updated.Title)

	require.NoError(t, svc.Delete(ctx, first.ID))
	_, err = svc.Get(ctx, first.ID)
	assert.ErrorIs(t, err, garden.ErrNotFound)
}

func TestProfileBirthdayClears(t *testing.T) {
	svc := NewProfileService(setupDB(t)).WithClock(fixedClock())
	ctx := context.Background()

	p, err := svc.Create(ctx, garden.ProfileDTO{Name: "Alex", Birthday: garden.Ptr("1995-04-12"), Favorites: garden.Tags{"tea", " books "}})
	require.NoError(t, err)
	require.NotNil(t, p.Birthday)
	assert.Equal(t, garden.Tags{"tea", "books"}, p.Favorites)

	cleared, err := svc.Update(ctx, p.ID, garden.ProfilePatch{Birthday: garden.Ptr("")})
	require.NoError(t, err)
	assert.Nil(t, cleared.Birthday)
	assert.Equal(t, "Alex", cleared.Name)

	list, err := svc.List(ctx, &garden.ContentFilter{Search: garden.Ptr("ale")})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTravelDatesAndRating(t *testing.T) {
	svc := NewTravelService(setupDB(t)).WithClock(fixedClock())
	ctx := context.Background()

	_, err := svc.Create(ctx, garden.TravelDTO{Destination: "Lisbon", StartDate: "2023-05-10", EndDate: garden.Ptr("2023-05-01")})
	var fe *garden.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "endDate", fe.Field)

	_, err = svc.Create(ctx, garden.TravelDTO{Destination: "Lisbon", StartDate: "2023-05-10", Rating: 6})
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "rating", fe.Field)

	trip, err := svc.Create(ctx, garden.TravelDTO{Destination: "Lisbon", Country: "Portugal", StartDate: "2023-05-10", EndDate: garden.Ptr("2023-05-17"), Rating: 5})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(trip.Slug, "lisbon-"))

	_, err = svc.Update(ctx, trip.ID, garden.TravelPatch{StartDate: garden.Ptr("2023-06-01")})
	assert.ErrorIs(t, err, garden.ErrValidation)

	byCountry, err := svc.List(ctx, &garden.ContentFilter{Category: garden.Ptr("Portugal")})
	require.NoError(t, err)
	require.Len(t, byCountry, 1)

	none, err := svc.List(ctx, &garden.ContentFilter{Category: garden.Ptr("Spain")})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestContactSubmitAndMarkRead(t *testing.T) {
	svc := NewContactService(setupDB(t)).WithClock(fixedClock())
	ctx := context.Background()

	_, err := svc.Create(ctx, garden.ContactDTO{Name: "Sam", Email: "not-an-email", Message: "hi"}, "127.0.0.1")
	var fe *garden.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "email", fe.Field)

	m, err := svc.Create(ctx, garden.ContactDTO{Name: " Sam\x00 ", Email: " Sam@Example.COM ", Message: "lovely garden"}, "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", m.Email)
	assert.False(t, m.Read)

	unread, err := svc.List(ctx, &garden.ContentFilter{Unread: garden.Ptr(true)})
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	read, err := svc.MarkRead(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)
	assert.True(t, read.UpdatedAt.After(m.UpdatedAt))

	unread, err = svc.List(ctx, &garden.ContentFilter{Unread: garden.Ptr(true)})
	require.NoError(t, err)
	assert.Empty(t, unread)

	require.NoError(t, svc.Delete(ctx, m.ID))
	_, err = svc.MarkRead(ctx, m.ID)
	assert.ErrorIs(t, err, garden.ErrNotFound)
}
