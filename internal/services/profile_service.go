package services

import (
	"context"
	"strings"

	"github.com/ourgarden/backend/internal/models"
	"github.com/ourgarden/backend/pkg/garden"
	"gorm.io/gorm"
)

type ProfileService struct {
	db  *gorm.DB
	now Clock
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db, now: SystemClock}
}

func (s *ProfileService) WithClock(now Clock) *ProfileService {
	s.now = now
	return s
}

func (s *ProfileService) List(ctx context.Context, f *garden.ContentFilter) ([]garden.Profile, error) {
	q := s.db.WithContext(ctx).Model(&models.Profile{})
	if f != nil {
		q = searchFilter(q, f.Search, "name", "nickname")
	}
	var rows []models.Profile
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, dbError("list profiles", err)
	}
	out := make([]garden.Profile, 0, len(rows))
	for i := range rows {
		p := rows[i].ToEntity()
		if f != nil && f.Search != nil && !containsFold(p.Name, *f.Search) && !containsFold(p.Nickname, *f.Search) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *ProfileService) Get(ctx context.Context, id string) (*garden.Profile, error) {
	row, err := findByID[models.Profile](ctx, s.db, "profile", id)
	if err != nil {
		return nil, err
	}
	p := row.ToEntity()
	return &p, nil
}

func (s *ProfileService) Create(ctx context.Context, dto garden.ProfileDTO) (*garden.Profile, error) {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Nickname = strings.TrimSpace(dto.Nickname)
	if err := garden.Check(&dto); err != nil {
		return nil, err
	}
	birthday, err := garden.OptionalDate("birthday", dto.Birthday)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	row := models.Profile{
		Name:      dto.Name,
		Nickname:  dto.Nickname,
		Bio:       dto.Bio,
		AvatarURL: strings.TrimSpace(dto.AvatarURL),
		Birthday:  birthday,
		Favorites: garden.JoinTags(dto.Favorites),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, dbError("create profile", err)
	}
	p := row.ToEntity()
	return &p, nil
}

func (s *ProfileService) Update(ctx context.Context, id string, p garden.ProfilePatch) (*garden.Profile, error) {
	p.Name = trimmed(p.Name)
	p.Nickname = trimmed(p.Nickname)
	if err := garden.Check(&p); err != nil {
		return nil, err
	}
	birthday, err := garden.OptionalDate("birthday", p.Birthday)
	if err != nil {
		return nil, err
	}

	row, err := findByID[models.Profile](ctx, s.db, "profile", id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		row.Name = *p.Name
	}
	if p.Nickname != nil {
		row.Nickname = *p.Nickname
	}
	if p.Bio != nil {
		row.Bio = *p.Bio
	}
	if p.AvatarURL != nil {
		row.AvatarURL = strings.TrimSpace(*p.AvatarURL)
	}
	if p.Birthday != nil {
		// an explicit empty string clears the birthday
		row.Birthday = birthday
	}
	if p.Favorites != nil {
		row.Favorites = garden.JoinTags(*p.Favorites)
	}
	row.UpdatedAt = s.now.next(row.UpdatedAt)

	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, dbError("update profile", err)
	}
	out := row.ToEntity()
	return &out, nil
}

func (s *ProfileService) Delete(ctx context.Context, id string) error {
	return deleteByID[models.Profile](ctx, s.db, "profile", id)
}
