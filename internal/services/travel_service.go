package services

import (
	"context"
	"sort"
	"strings"

	"github.com/ourgarden/backend/internal/models"
	"github.com/ourgarden/backend/pkg/garden"
	"github.com/ourgarden/backend/pkg/slug"
	"gorm.io/gorm"
)

type TravelService struct {
	db    *gorm.DB
	slugs *slug.Generator
	now   Clock
}

func NewTravelService(db *gorm.DB) *TravelService {
	return &TravelService{db: db, slugs: slug.NewGenerator(), now: SystemClock}
}

func (s *TravelService) WithClock(now Clock) *TravelService {
	s.now = now
	s.slugs = slug.NewGeneratorWithClock(now)
	return s
}

// List returns trips, latest start date first. The category filter matches
// the country.
func (s *TravelService) List(ctx context.Context, f *garden.ContentFilter) ([]garden.TravelLog, error) {
	q := s.db.WithContext(ctx).Model(&models.TravelLog{})
	if f != nil {
		if f.Category != nil {
			q = q.Where("country = ?", *f.Category)
		}
		q = searchFilter(q, f.Search, "destination", "tags")
	}
	var rows []models.TravelLog
	if err := q.Order("start_date DESC").Find(&rows).Error; err != nil {
		return nil, dbError("list travel", err)
	}

	out := make([]garden.TravelLog, 0, len(rows))
	for i := range rows {
		t := rows[i].ToEntity()
		if f != nil && f.Search != nil && !garden.MatchesSearch(*f.Search, t.Destination, t.Tags) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

// Get looks a trip up by id or slug.
func (s *TravelService) Get(ctx context.Context, idOrSlug string) (*garden.TravelLog, error) {
	var row models.TravelLog
	if err := s.db.WithContext(ctx).Where("id = ? OR slug = ?", idOrSlug, idOrSlug).First(&row).Error; err != nil {
		return nil, dbError("travel log", err)
	}
	t := row.ToEntity()
	return &t, nil
}

func (s *TravelService) Create(ctx context.Context, dto garden.TravelDTO) (*garden.TravelLog, error) {
	dto.Destination = strings.TrimSpace(dto.Destination)
	dto.Country = strings.TrimSpace(dto.Country)
	dto.Tags = garden.Normalize(dto.Tags)
	if err := garden.Check(&dto); err != nil {
		return nil, err
	}
	start, err := garden.ParseDate("startDate", dto.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := garden.OptionalDate("endDate", dto.EndDate)
	if err != nil {
		return nil, err
	}
	if end != nil && end.Before(start) {
		return nil, garden.NewFieldError("endDate", "must not be before startDate")
	}

	now := s.now().UTC()
	row := models.TravelLog{
		Slug:        s.slugs.Generate(dto.Destination),
		Destination: dto.Destination,
		Country:     dto.Country,
		StartDate:   start,
		EndDate:     end,
		Story:       dto.Story,
		CoverImage:  strings.TrimSpace(dto.CoverImage),
		Tags:        garden.JoinTags(dto.Tags),
		Rating:      dto.Rating,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, dbError("create travel log", err)
	}
	t := row.ToEntity()
	return &t, nil
}

func (s *TravelService) Update(ctx context.Context, id string, p garden.TravelPatch) (*garden.TravelLog, error) {
	p.Destination = trimmed(p.Destination)
	p.Country = trimmed(p.Country)
	if err := garden.Check(&p); err != nil {
		return nil, err
	}
	start, err := garden.OptionalDate("startDate", p.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := garden.OptionalDate("endDate", p.EndDate)
	if err != nil {
		return nil, err
	}

	row, err := findByID[models.TravelLog](ctx, s.db, "travel log", id)
	if err != nil {
		return nil, err
	}
	if p.Destination != nil {
		row.Destination = *p.Destination
	}
	if p.Country != nil {
		row.Country = *p.Country
	}
	if start != nil {
		row.StartDate = *start
	}
	if p.EndDate != nil {
		row.EndDate = end
	}
	if row.EndDate != nil && row.EndDate.Before(row.StartDate) {
		return nil, garden.NewFieldError("endDate", "must not be before startDate")
	}
	if p.Story != nil {
		row.Story = *p.Story
	}
	if p.CoverImage != nil {
		row.CoverImage = strings.TrimSpace(*p.CoverImage)
	}
	if p.Tags != nil {
		row.Tags = garden.JoinTags(*p.Tags)
	}
	if p.Rating != nil {
		row.Rating = *p.Rating
	}
	row.UpdatedAt = s.now.next(row.UpdatedAt)

	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, dbError("update travel log", err)
	}
	t := row.ToEntity()
	return &t, nil
}

func (s *TravelService) Delete(ctx context.Context, id string) error {
	return deleteByID[models.TravelLog](ctx, s.db, "travel log", id)
}
