package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ourgarden/backend/pkg/garden"
	"gorm.io/gorm"
)

// Memory is the persisted form of garden.Memory. Tags are stored as a
// comma-joined string; timestamps are assigned by the service clock.
type Memory struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Slug      string    `gorm:"size:200;uniqueIndex"`
	Title     string    `gorm:"size:100;not null;index"`
	Date      time.Time `gorm:"not null;index"`
	Category  string    `gorm:"size:50;not null;index"`
	Tags      string    `gorm:"type:text"`
	Mood      string    `gorm:"size:20"`
	Quote     string    `gorm:"type:text"`
	Story     string    `gorm:"type:text"`
	Location  string    `gorm:"size:200"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`

	Images []MemoryImage `gorm:"foreignKey:MemoryID;constraint:OnDelete:CASCADE"`
}

func (m *Memory) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// MemoryImage is owned by exactly one Memory.
type MemoryImage struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	MemoryID  string    `gorm:"type:varchar(36);not null;index"`
	URL       string    `gorm:"type:text;not null"`
	Alt       string    `gorm:"size:200"`
	SortOrder int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

func (i *MemoryImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// ToEntity formats a row for the API: tags as a list and images as a
// non-nil slice ordered by SortOrder.
func (m *Memory) ToEntity() garden.Memory {
	images := make([]garden.MemoryImage, 0, len(m.Images))
	for i := range m.Images {
		images = append(images, m.Images[i].ToEntity())
	}
	sort.SliceStable(images, func(a, b int) bool { return images[a].SortOrder < images[b].SortOrder })

	return garden.Memory{
		ID:        m.ID,
		Slug:      m.Slug,
		Title:     m.Title,
		Date:      m.Date.UTC(),
		Category:  m.Category,
		Tags:      garden.ParseTags(m.Tags),
		Mood:      m.Mood,
		Quote:     m.Quote,
		Story:     m.Story,
		Location:  m.Location,
		Images:    images,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func (i *MemoryImage) ToEntity() garden.MemoryImage {
	return garden.MemoryImage{
		ID:        i.ID,
		MemoryID:  i.MemoryID,
		URL:       i.URL,
		Alt:       i.Alt,
		SortOrder: i.SortOrder,
		CreatedAt: i.CreatedAt.UTC(),
	}
}

// MemoriesToEntities formats a slice of rows.
func MemoriesToEntities(rows []Memory) []garden.Memory {
	out := make([]garden.Memory, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToEntity())
	}
	return out
}
