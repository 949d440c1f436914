package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ourgarden/backend/internal/models"
	"github.com/ourgarden/backend/internal/storage"
	"github.com/ourgarden/backend/pkg/garden"
	"gorm.io/gorm"
)

// GalleryService owns standalone uploaded pictures and their files.
type GalleryService struct {
	db     *gorm.DB
	files  fileWriter
	limits UploadLimits
	now    Clock
}

func NewGalleryService(db *gorm.DB, files storage.FileStore, limits UploadLimits) *GalleryService {
	return &GalleryService{db: db, files: fileWriter{files: files}, limits: limits, now: SystemClock}
}

func (s *GalleryService) WithClock(now Clock) *GalleryService {
	s.now = now
	return s
}

// Upload stores a batch and creates one gallery record per file. The batch
// is validated in full before any file is written, and the files are
// removed again if the records cannot be committed.
func (s *GalleryService) Upload(ctx context.Context, uploads []Upload, category string) ([]garden.GalleryImage, error) {
	category = strings.TrimSpace(category)
	if len(category) > 50 {
		return nil, garden.NewFieldError("category", "must be at most 50 characters")
	}
	types, err := s.limits.CheckBatch(uploads)
	if err != nil {
		return nil, err
	}

	written, err := s.files.writeAll(ctx, "gallery", uploads, types)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rows := make([]models.GalleryImage, len(written))
	for i, f := range written {
		rows[i] = models.GalleryImage{
			URL:       f.url,
			Caption:   captionFrom(uploads[i].Filename),
			Category:  category,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Create(&rows[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.files.removeAll(ctx, written)
		return nil, dbError("upload gallery images", err)
	}

	out := make([]garden.GalleryImage, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToEntity())
	}
	slog.Info("gallery images uploaded", "count", len(out), "category", category)
	return out, nil
}

// List returns pictures newest first.
func (s *GalleryService) List(ctx context.Context, f *garden.ContentFilter) ([]garden.GalleryImage, error) {
	q := s.db.WithContext(ctx).Model(&models.GalleryImage{})
	if f != nil {
		if f.Category != nil {
			q = q.Where("category = ?", *f.Category)
		}
		q = searchFilter(q, f.Search, "caption")
	}
	var rows []models.GalleryImage
	if err := q.Order("created_at DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, dbError("list gallery", err)
	}
	out := make([]garden.GalleryImage, 0, len(rows))
	for i := range rows {
		g := rows[i].ToEntity()
		if f != nil && f.Search != nil && !containsFold(g.Caption, *f.Search) {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *GalleryService) Get(ctx context.Context, id string) (*garden.GalleryImage, error) {
	row, err := findByID[models.GalleryImage](ctx, s.db, "image", id)
	if err != nil {
		return nil, err
	}
	g := row.ToEntity()
	return &g, nil
}

func (s *GalleryService) Update(ctx context.Context, id string, p garden.GalleryPatch) (*garden.GalleryImage, error) {
	p.Caption = trimmed(p.Caption)
	p.Category = trimmed(p.Category)
	if err := garden.Check(&p); err != nil {
		return nil, err
	}
	taken, err := garden.OptionalDate("takenAt", p.TakenAt)
	if err != nil {
		return nil, err
	}

	row, err := findByID[models.GalleryImage](ctx, s.db, "image", id)
	if err != nil {
		return nil, err
	}
	if p.Caption != nil {
		row.Caption = *p.Caption
	}
	if p.Category != nil {
		row.Category = *p.Category
	}
	if p.TakenAt != nil {
		row.TakenAt = taken
	}
	row.UpdatedAt = s.now.next(row.UpdatedAt)

	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, dbError("update image", err)
	}
	g := row.ToEntity()
	return &g, nil
}

// Delete removes the file before the record so a failed file delete leaves
// the record in place to retry.
func (s *GalleryService) Delete(ctx context.Context, id string) error {
	row, err := findByID[models.GalleryImage](ctx, s.db, "image", id)
	if err != nil {
		return err
	}
	if err := s.files.removeURL(ctx, row.URL); err != nil {
		return err
	}
	return deleteByID[models.GalleryImage](ctx, s.db, "image", id)
}

// captionFrom derives a default caption from the uploaded file name.
func captionFrom(filename string) string {
	name := filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > 300 {
		name = string(r[:300])
	}
	return name
}
