package services

import (
	"context"
	"log/slog"

	"github.com/ourgarden/backend/internal/models"
	"github.com/ourgarden/backend/internal/storage"
	"github.com/ourgarden/backend/pkg/garden"
	"github.com/ourgarden/backend/pkg/slug"
	"gorm.io/gorm"
)

type MemoryService struct {
	db     *gorm.DB
	files  fileWriter
	limits UploadLimits
	slugs  *slug.Generator
	now    Clock
}

func NewMemoryService(db *gorm.DB, files storage.FileStore, limits UploadLimits) *MemoryService {
	return &MemoryService{
		db:     db,
		files:  fileWriter{files: files},
		limits: limits,
		slugs:  slug.NewGenerator(),
		now:    SystemClock,
	}
}

// WithClock replaces the clock and the slug generator's clock.
func (s *MemoryService) WithClock(now Clock) *MemoryService {
	s.now = now
	s.slugs = slug.NewGeneratorWithClock(now)
	return s
}

func (s *MemoryService) withImages(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	})
}

// List returns the memories matching every set filter field, newest first.
func (s *MemoryService) List(ctx context.Context, f *garden.MemoryFilter) ([]garden.Memory, error) {
	q := s.withImages(s.db.WithContext(ctx).Model(&models.Memory{}))
	if f != nil {
		if f.Category != nil {
			q = q.Where("category = ?", *f.Category)
		}
		if f.Mood != nil {
			q = q.Where("mood = ?", *f.Mood)
		}
		if f.Search != nil && *f.Search != "" {
			p := likePattern(*f.Search)
			q = q.Where("LOWER(title) LIKE ? OR LOWER(tags) LIKE ?", p, p)
		}
		if f.StartDate != nil {
			q = q.Where("date >= ?", *f.StartDate)
		}
		if f.EndDate != nil {
			q = q.Where("date <= ?", *f.EndDate)
		}
	}

	var rows []models.Memory
	if err := q.Order("date DESC").Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, dbError("list memories", err)
	}

	out := make([]garden.Memory, 0, len(rows))
	for i := range rows {
		if m := rows[i].ToEntity(); f.Matches(m) {
			out = append(out, m)
		}
	}
	garden.SortMemories(out)
	return out, nil
}

// Get looks a memory up by id or slug.
func (s *MemoryService) Get(ctx context.Context, idOrSlug string) (*garden.Memory, error) {
	var row models.Memory
	err := s.withImages(s.db.WithContext(ctx)).
		Where("id = ? OR slug = ?", idOrSlug, idOrSlug).
		First(&row).Error
	if err != nil {
		return nil, dbError("memory", err)
	}
	m := row.ToEntity()
	return &m, nil
}

func (s *MemoryService) Create(ctx context.Context, dto garden.MemoryDTO) (*garden.Memory, error) {
	dto.Normalize()
	date, err := dto.Validate()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	row := models.Memory{
		Slug:      s.slugFor(dto.Slug, dto.Title),
		Title:     dto.Title,
		Date:      date,
		Category:  dto.Category,
		Tags:      garden.JoinTags(dto.Tags),
		Mood:      dto.Mood,
		Quote:     dto.Quote,
		Story:     dto.Story,
		Location:  dto.Location,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.limits.CheckCapacity(0, len(dto.Images)); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureSlugFree(tx, row.Slug, ""); err != nil {
			return err
		}
		if err := tx.Omit("Images").Create(&row).Error; err != nil {
			return err
		}
		for i, img := range dto.Images {
			rec := models.MemoryImage{
				MemoryID:  row.ID,
				URL:       img.URL,
				Alt:       altOr(img.Alt, row.Title),
				SortOrder: i,
				CreatedAt: now,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			row.Images = append(row.Images, rec)
		}
		return nil
	})
	if err != nil {
		return nil, dbError("create memory", err)
	}

	m := row.ToEntity()
	return &m, nil
}

// Update merges the present patch fields onto the memory and bumps updatedAt.
func (s *MemoryService) Update(ctx context.Context, id string, patch garden.MemoryPatch) (*garden.Memory, error) {
	patch.Normalize()
	if _, err := patch.Validate(); err != nil {
		return nil, err
	}

	var row models.Memory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.withImages(forUpdate(tx)).First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		m := row.ToEntity()
		if err := patch.Apply(&m); err != nil {
			return err
		}
		if patch.Slug != nil {
			m.Slug = s.slugFor(*patch.Slug, m.Title)
			if err := s.ensureSlugFree(tx, m.Slug, row.ID); err != nil {
				return err
			}
		}

		row.Slug = m.Slug
		row.Title = m.Title
		row.Date = m.Date
		row.Category = m.Category
		row.Tags = garden.JoinTags(m.Tags)
		row.Mood = m.Mood
		row.Quote = m.Quote
		row.Story = m.Story
		row.Location = m.Location
		row.UpdatedAt = s.now.next(row.UpdatedAt)
		return tx.Omit("Images").Save(&row).Error
	})
	if err != nil {
		return nil, dbError("memory", err)
	}

	m := row.ToEntity()
	return &m, nil
}

// Delete removes every owned image file, then the image records, then the
// memory row. A second delete of the same id reports ErrNotFound.
func (s *MemoryService) Delete(ctx context.Context, id string) error {
	var row models.Memory
	if err := s.withImages(s.db.WithContext(ctx)).First(&row, "id = ?", id).Error; err != nil {
		return dbError("memory", err)
	}

	for _, img := range row.Images {
		if err := s.files.removeURL(ctx, img.URL); err != nil {
			return err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("memory_id = ?", id).Delete(&models.MemoryImage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Memory{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return dbError("memory", err)
}

// AttachImages stores a batch of uploads and appends one image record per
// file in upload order. Nothing is written unless every file passes
// validation; if the records cannot be committed the files are removed.
func (s *MemoryService) AttachImages(ctx context.Context, id string, uploads []Upload) ([]garden.MemoryImage, error) {
	var parent models.Memory
	if err := s.db.WithContext(ctx).First(&parent, "id = ?", id).Error; err != nil {
		return nil, dbError("memory", err)
	}

	types, err := s.limits.CheckBatch(uploads)
	if err != nil {
		return nil, err
	}
	if err := s.checkCapacity(ctx, id, len(uploads)); err != nil {
		return nil, err
	}

	written, err := s.files.writeAll(ctx, "memories/"+id, uploads, types)
	if err != nil {
		return nil, err
	}

	var created []models.MemoryImage
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&parent, "id = ?", id).Error; err != nil {
			return err
		}
		var stats struct {
			Count   int64
			MaxSort *int
		}
		if err := tx.Model(&models.MemoryImage{}).
			Select("COUNT(*) AS count, MAX(sort_order) AS max_sort").
			Where("memory_id = ?", id).
			Scan(&stats).Error; err != nil {
			return err
		}
		if err := s.limits.CheckCapacity(int(stats.Count), len(written)); err != nil {
			return err
		}
		next := 0
		if stats.MaxSort != nil {
			next = *stats.MaxSort + 1
		}

		now := s.now.next(parent.UpdatedAt)
		for i, f := range written {
			rec := models.MemoryImage{
				MemoryID:  id,
				URL:       f.url,
				Alt:       parent.Title,
				SortOrder: next + i,
				CreatedAt: now,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			created = append(created, rec)
		}
		return tx.Model(&models.Memory{}).Where("id = ?", id).Update("updated_at", now).Error
	})
	if err != nil {
		s.files.removeAll(ctx, written)
		return nil, dbError("attach images", err)
	}

	out := make([]garden.MemoryImage, 0, len(created))
	for i := range created {
		out = append(out, created[i].ToEntity())
	}
	slog.Info("images attached", "memory_id", id, "count", len(out))
	return out, nil
}

// DetachImage deletes the backing file, if it belongs to the file store,
// before deleting the record. A file already missing does not fail the call.
func (s *MemoryService) DetachImage(ctx context.Context, memoryID, imageID string) error {
	var img models.MemoryImage
	if err := s.db.WithContext(ctx).First(&img, "id = ? AND memory_id = ?", imageID, memoryID).Error; err != nil {
		return dbError("image", err)
	}

	if err := s.files.removeURL(ctx, img.URL); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.MemoryImage{}, "id = ?", img.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		var parent models.Memory
		if err := tx.Select("id", "updated_at").First(&parent, "id = ?", memoryID).Error; err != nil {
			return err
		}
		return tx.Model(&models.Memory{}).Where("id = ?", memoryID).Update("updated_at", s.now.next(parent.UpdatedAt)).Error
	})
	return dbError("image", err)
}

func (s *MemoryService) checkCapacity(ctx context.Context, id string, adding int) error {
	if s.limits.MaxPerEntity <= 0 {
		return nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.MemoryImage{}).Where("memory_id = ?", id).Count(&count).Error; err != nil {
		return dbError("count images", err)
	}
	return s.limits.CheckCapacity(int(count), adding)
}

// slugFor uses an explicit slug when one is given and derives one from the
// title otherwise.
func (s *MemoryService) slugFor(explicit, title string) string {
	if b := slug.Base(explicit); b != "" {
		return b
	}
	return s.slugs.Generate(title)
}

func (s *MemoryService) ensureSlugFree(tx *gorm.DB, slug, exceptID string) error {
	taken, err := slugTaken(tx, &models.Memory{}, slug, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return garden.NewFieldError("slug", "is already taken")
	}
	return nil
}

func altOr(alt, def string) string {
	if alt != "" {
		return alt
	}
	return def
}
