package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/ourgarden/backend/pkg/garden"
	"gorm.io/gorm"
)

type News struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	Slug        string    `gorm:"size:220;uniqueIndex"`
	Title       string    `gorm:"size:150;not null"`
	Excerpt     string    `gorm:"size:300"`
	Content     string    `gorm:"type:text;not null"`
	Category    string    `gorm:"size:50;index"`
	CoverImage  string    `gorm:"type:text"`
	Tags        string    `gorm:"type:text"`
	PublishedAt time.Time `gorm:"index"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

func (n *News) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

func (n *News) ToEntity() garden.News {
	return garden.News{
		ID:          n.ID,
		Slug:        n.Slug,
		Title:       n.Title,
		Excerpt:     n.Excerpt,
		Content:     n.Content,
		Category:    n.Category,
		CoverImage:  n.CoverImage,
		Tags:        garden.ParseTags(n.Tags),
		PublishedAt: n.PublishedAt.UTC(),
		CreatedAt:   n.CreatedAt.UTC(),
		UpdatedAt:   n.UpdatedAt.UTC(),
	}
}

type JourneyMilestone struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	Title       string    `gorm:"size:100;not null"`
	Description string    `gorm:"type:text"`
	Date        time.Time `gorm:"not null;index"`
	Icon        string    `gorm:"size:50"`
	Location    string    `gorm:"size:200"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

func (j *JourneyMilestone) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

func (j *JourneyMilestone) ToEntity() garden.JourneyMilestone {
	return garden.JourneyMilestone{
		ID:          j.ID,
		Title:       j.Title,
		Description: j.Description,
		Date:        j.Date.UTC(),
		Icon:        j.Icon,
		Location:    j.Location,
		CreatedAt:   j.CreatedAt.UTC(),
		UpdatedAt:   j.UpdatedAt.UTC(),
	}
}

type Profile struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	Name      string `gorm:"size:100;not null"`
	Nickname  string `gorm:"size:50"`
	Bio       string `gorm:"type:text"`
	AvatarURL string `gorm:"type:text"`
	Birthday  *time.Time
	Favorites string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *Profile) ToEntity() garden.Profile {
	return garden.Profile{
		ID:        p.ID,
		Name:      p.Name,
		Nickname:  p.Nickname,
		Bio:       p.Bio,
		AvatarURL: p.AvatarURL,
		Birthday:  utcPtr(p.Birthday),
		Favorites: garden.ParseTags(p.Favorites),
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

// GalleryImage represents an uploaded picture in the gallery.
type GalleryImage struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	URL       string `gorm:"type:text;not null"`
	Caption   string `gorm:"size:300"`
	Category  string `gorm:"size:50;index"`
	TakenAt   *time.Time
	CreatedAt time.Time `gorm:"autoCreateTime:false;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (g *GalleryImage) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

func (g *GalleryImage) ToEntity() garden.GalleryImage {
	return garden.GalleryImage{
		ID:        g.ID,
		URL:       g.URL,
		Caption:   g.Caption,
		Category:  g.Category,
		TakenAt:   utcPtr(g.TakenAt),
		CreatedAt: g.CreatedAt.UTC(),
		UpdatedAt: g.UpdatedAt.UTC(),
	}
}

type TravelLog struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	Slug        string    `gorm:"size:200;uniqueIndex"`
	Destination string    `gorm:"size:100;not null"`
	Country     string    `gorm:"size:100;index"`
	StartDate   time.Time `gorm:"not null;index"`
	EndDate     *time.Time
	Story       string    `gorm:"type:text"`
	CoverImage  string    `gorm:"type:text"`
	Tags        string    `gorm:"type:text"`
	Rating      int       `gorm:"default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

func (t *TravelLog) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (t *TravelLog) ToEntity() garden.TravelLog {
	return garden.TravelLog{
		ID:          t.ID,
		Slug:        t.Slug,
		Destination: t.Destination,
		Country:     t.Country,
		StartDate:   t.StartDate.UTC(),
		EndDate:     utcPtr(t.EndDate),
		Story:       t.Story,
		CoverImage:  t.CoverImage,
		Tags:        garden.ParseTags(t.Tags),
		Rating:      t.Rating,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

type ContactMessage struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Name      string    `gorm:"size:100;not null"`
	Email     string    `gorm:"size:200;not null"`
	Subject   string    `gorm:"size:200"`
	Message   string    `gorm:"type:text;not null"`
	Read      bool      `gorm:"default:false;index"`
	IPAddress string    `gorm:"type:varchar(45)"`
	CreatedAt time.Time `gorm:"autoCreateTime:false;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (c *ContactMessage) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (c *ContactMessage) ToEntity() garden.ContactMessage {
	return garden.ContactMessage{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Subject:   c.Subject,
		Message:   c.Message,
		Read:      c.Read,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
