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

type NewsService struct {
	db    *gorm.DB
	slugs *slug.Generator
	now   Clock
}

func NewNewsService(db *gorm.DB) *NewsService {
	return &NewsService{db: db, slugs: slug.NewGenerator(), now: SystemClock}
}

func (s *NewsService) WithClock(now Clock) *NewsService {
	s.now = now
	s.slugs = slug.NewGeneratorWithClock(now)
	return s
}

// List returns posts newest-published first.
func (s *NewsService) List(ctx context.Context, f *garden.ContentFilter) ([]garden.News, error) {
	q := s.db.WithContext(ctx).Model(&models.News{})
	if f != nil {
		if f.Category != nil {
			q = q.Where("category = ?", *f.Category)
		}
		q = searchFilter(q, f.Search, "title", "tags")
	}
	var rows []models.News
	if err := q.Order("published_at DESC").Find(&rows).Error; err != nil {
		return nil, dbError("list news", err)
	}

	out := make([]garden.News, 0, len(rows))
	for i := range rows {
		n := rows[i].ToEntity()
		if f != nil && f.Search != nil && !garden.MatchesSearch(*f.Search, n.Title, n.Tags) {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	return out, nil
}

// Get looks a post up by id or slug.
func (s *NewsService) Get(ctx context.Context, idOrSlug string) (*garden.News, error) {
	var row models.News
	if err := s.db.WithContext(ctx).Where("id = ? OR slug = ?", idOrSlug, idOrSlug).First(&row).Error; err != nil {
		return nil, dbError("news", err)
	}
	n := row.ToEntity()
	return &n, nil
}

func (s *NewsService) Create(ctx context.Context, dto garden.NewsDTO) (*garden.News, error) {
	dto.Title = strings.TrimSpace(dto.Title)
	dto.Category = strings.TrimSpace(dto.Category)
	dto.Tags = garden.Normalize(dto.Tags)
	if err := garden.Check(&dto); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	published, err := garden.DateOr("publishedAt", dto.PublishedAt, now)
	if err != nil {
		return nil, err
	}

	row := models.News{
		Slug:        s.slugs.Generate(dto.Title),
		Title:       dto.Title,
		Excerpt:     strings.TrimSpace(dto.Excerpt),
		Content:     dto.Content,
		Category:    dto.Category,
		CoverImage:  strings.TrimSpace(dto.CoverImage),
		Tags:        garden.JoinTags(dto.Tags),
		PublishedAt: published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, dbError("create news", err)
	}
	n := row.ToEntity()
	return &n, nil
}

func (s *NewsService) Update(ctx context.Context, id string, p garden.NewsPatch) (*garden.News, error) {
	p.Title = trimmed(p.Title)
	p.Category = trimmed(p.Category)
	if err := garden.Check(&p); err != nil {
		return nil, err
	}
	published, err := garden.OptionalDate("publishedAt", p.PublishedAt)
	if err != nil {
		return nil, err
	}

	row, err := findByID[models.News](ctx, s.db, "news", id)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		row.Title = *p.Title
	}
	if p.Excerpt != nil {
		row.Excerpt = strings.TrimSpace(*p.Excerpt)
	}
	if p.Content != nil {
		row.Content = *p.Content
	}
	if p.Category != nil {
		row.Category = *p.Category
	}
	if p.CoverImage != nil {
		row.CoverImage = strings.TrimSpace(*p.CoverImage)
	}
	if p.Tags != nil {
		row.Tags = garden.JoinTags(*p.Tags)
	}
	if published != nil {
		row.PublishedAt = *published
	}
	row.UpdatedAt = s.now.next(row.UpdatedAt)

	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, dbError("update news", err)
	}
	n := row.ToEntity()
	return &n, nil
}

func (s *NewsService) Delete(ctx context.Context, id string) error {
	return deleteByID[models.News](ctx, s.db, "news", id)
}
