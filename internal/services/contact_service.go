package services

import (
	"context"

	"github.com/ourgarden/backend/internal/models"
	"github.com/ourgarden/backend/pkg/garden"
	"github.com/ourgarden/backend/pkg/validation"
	"gorm.io/gorm"
)

// ContactService stores guestbook/contact form submissions. Anyone may
// submit; reading and moderation are admin-only.
type ContactService struct {
	db  *gorm.DB
	now Clock
}

func NewContactService(db *gorm.DB) *ContactService {
	return &ContactService{db: db, now: SystemClock}
}

func (s *ContactService) WithClock(now Clock) *ContactService {
	s.now = now
	return s
}

// List returns messages newest first.
func (s *ContactService) List(ctx context.Context, f *garden.ContentFilter) ([]garden.ContactMessage, error) {
	q := s.db.WithContext(ctx).Model(&models.ContactMessage{})
	if f != nil {
		if f.Unread != nil {
			q = q.Where("read = ?", !*f.Unread)
		}
		q = searchFilter(q, f.Search, "name", "subject", "message")
	}
	var rows []models.ContactMessage
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, dbError("list messages", err)
	}
	out := make([]garden.ContactMessage, 0, len(rows))
	for i := range rows {
		m := rows[i].ToEntity()
		if f != nil && f.Search != nil &&
			!containsFold(m.Name, *f.Search) && !containsFold(m.Subject, *f.Search) && !containsFold(m.Message, *f.Search) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *ContactService) Get(ctx context.Context, id string) (*garden.ContactMessage, error) {
	row, err := findByID[models.ContactMessage](ctx, s.db, "message", id)
	if err != nil {
		return nil, err
	}
	m := row.ToEntity()
	return &m, nil
}

// Create records a submission; ip is kept for abuse investigation only.
func (s *ContactService) Create(ctx context.Context, dto garden.ContactDTO, ip string) (*garden.ContactMessage, error) {
	dto.Name = validation.SanitizeString(dto.Name)
	dto.Email = validation.NormalizeEmail(dto.Email)
	dto.Subject = validation.SanitizeString(dto.Subject)
	dto.Message = validation.SanitizeString(dto.Message)
	if err := garden.Check(&dto); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	row := models.ContactMessage{
		Name:      dto.Name,
		Email:     dto.Email,
		Subject:   dto.Subject,
		Message:   dto.Message,
		IPAddress: ip,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, dbError("create message", err)
	}
	m := row.ToEntity()
	return &m, nil
}

// Update applies the read flag. A patch without fields still bumps updatedAt.
func (s *ContactService) Update(ctx context.Context, id string, p garden.ContactPatch) (*garden.ContactMessage, error) {
	row, err := findByID[models.ContactMessage](ctx, s.db, "message", id)
	if err != nil {
		return nil, err
	}
	if p.Read != nil {
		row.Read = *p.Read
	}
	row.UpdatedAt = s.now.next(row.UpdatedAt)
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, dbError("update message", err)
	}
	m := row.ToEntity()
	return &m, nil
}

// MarkRead flags a message as read.
func (s *ContactService) MarkRead(ctx context.Context, id string) (*garden.ContactMessage, error) {
	return s.Update(ctx, id, garden.ContactPatch{Read: garden.Ptr(true)})
}

func (s *ContactService) Delete(ctx context.Context, id string) error {
	return deleteByID[models.ContactMessage](ctx, s.db, "message", id)
}
