package services

import (
	"context"
	"sort"
	"strings"

	"github.com/ourgarden/backend/internal/models"
	"github.com/ourgarden/backend/pkg/garden"
	"gorm.io/gorm"
)

type JourneyService struct {
	db  *gorm.DB
	now Clock
}

func NewJourneyService(db *gorm.DB) *JourneyService {
	return &JourneyService{db: db, now: SystemClock}
}

func (s *JourneyService) WithClock(now Clock) *JourneyService {
	s.now = now
	return s
}

// List returns milestones, most recent date first.
func (s *JourneyService) List(ctx context.Context, f *garden.ContentFilter) ([]garden.JourneyMilestone, error) {
	q := s.db.WithContext(ctx).Model(&models.JourneyMilestone{})
	if f != nil {
		q = searchFilter(q, f.Search, "title", "description", "location")
	}
	var rows []models.JourneyMilestone
	if err := q.Order("date DESC").Find(&rows).Error; err != nil {
		return nil, dbError("list journey", err)
	}

	out := make([]garden.JourneyMilestone, 0, len(rows))
	for i := range rows {
		j := rows[i].ToEntity()
		if f != nil && f.Search != nil &&
			!containsFold(j.Title, *f.Search) && !containsFold(j.Description, *f.Search) && !containsFold(j.Location, *f.Search) {
			continue
		}
		out = append(out, j)
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].Date.After(out[k].Date) })
	return out, nil
}

func (s *JourneyService) Get(ctx context.Context, id string) (*garden.JourneyMilestone, error) {
	row, err := findByID[models.JourneyMilestone](ctx, s.db, "milestone", id)
	if err != nil {
		return nil, err
	}
	j := row.ToEntity()
	return &j, nil
}

func (s *JourneyService) Create(ctx context.Context, dto garden.JourneyDTO) (*garden.JourneyMilestone, error) {
	dto.Title = strings.TrimSpace(dto.Title)
	dto.Icon = strings.TrimSpace(dto.Icon)
	dto.Location = strings.TrimSpace(dto.Location)
	if err := garden.Check(&dto); err != nil {
		return nil, err
	}
	date, err := garden.ParseDate("date", dto.Date)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	row := models.JourneyMilestone{
		Title:       dto.Title,
		Description: dto.Description,
		Date:        date,
		Icon:        dto.Icon,
		Location:    dto.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, dbError("create milestone", err)
	}
	j := row.ToEntity()
	return &j, nil
}

func (s *JourneyService) Update(ctx context.Context, id string, p garden.JourneyPatch) (*garden.JourneyMilestone, error) {
	p.Title = trimmed(p.Title)
	p.Icon = trimmed(p.Icon)
	p.Location = trimmed(p.Location)
	if err := garden.Check(&p); err != nil {
		return nil, err
	}
	date, err := garden.OptionalDate("date", p.Date)
	if err != nil {
		return nil, err
	}

	row, err := findByID[models.JourneyMilestone](ctx, s.db, "milestone", id)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		row.Title = *p.Title
	}
	if p.Description != nil {
		row.Description = *p.Description
	}
	if date != nil {
		row.Date = *date
	}
	if p.Icon != nil {
		row.Icon = *p.Icon
	}
	if p.Location != nil {
		row.Location = *p.Location
	}
	row.UpdatedAt = s.now.next(row.UpdatedAt)

	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, dbError("update milestone", err)
	}
	j := row.ToEntity()
	return &j, nil
}

func (s *JourneyService) Delete(ctx context.Context, id string) error {
	return deleteByID[models.JourneyMilestone](ctx, s.db, "milestone", id)
}
