package garden

import (
	"net/url"
	"strings"
	"time"
)

// ContentFilter narrows List queries for the sibling resources. Which
// fields apply depends on the resource: Category for news, gallery and
// travel (country); Search for every text resource; Unread for contact.
type ContentFilter struct {
	Category *string
	Search   *string
	Unread   *bool
}

// Query encodes only the fields that are set.
func (f *ContentFilter) Query() url.Values {
	q := url.Values{}
	if f == nil {
		return q
	}
	setString(q, "category", f.Category)
	setString(q, "search", f.Search)
	if f.Unread != nil {
		if *f.Unread {
			q.Set("unread", "true")
		} else {
			q.Set("unread", "false")
		}
	}
	return q
}

// ParseContentFilter is the server-side inverse of Query.
func ParseContentFilter(q url.Values) *ContentFilter {
	f := &ContentFilter{
		Category: getString(q, "category"),
		Search:   getString(q, "search"),
	}
	if v := getString(q, "unread"); v != nil {
		b := strings.EqualFold(*v, "true") || *v == "1"
		f.Unread = &b
	}
	return f
}

// News is a short announcement or blog-style post.
type News struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Content     string    `json:"content"`
	Category    string    `json:"category,omitempty"`
	CoverImage  string    `json:"coverImage,omitempty"`
	Tags        Tags      `json:"tags"`
	PublishedAt time.Time `json:"publishedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type NewsDTO struct {
	Title       string `json:"title" validate:"notblank,max=150"`
	Excerpt     string `json:"excerpt,omitempty" validate:"max=300"`
	Content     string `json:"content" validate:"notblank"`
	Category    string `json:"category,omitempty" validate:"max=50"`
	CoverImage  string `json:"coverImage,omitempty"`
	Tags        Tags   `json:"tags"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

type NewsPatch struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,notblank,max=150"`
	Excerpt     *string `json:"excerpt,omitempty" validate:"omitempty,max=300"`
	Content     *string `json:"content,omitempty" validate:"omitempty,notblank"`
	Category    *string `json:"category,omitempty" validate:"omitempty,max=50"`
	CoverImage  *string `json:"coverImage,omitempty"`
	Tags        *Tags   `json:"tags,omitempty"`
	PublishedAt *string `json:"publishedAt,omitempty"`
}

// JourneyMilestone is an entry on the relationship timeline.
type JourneyMilestone struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Icon        string    `json:"icon,omitempty"`
	Location    string    `json:"location,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type JourneyDTO struct {
	Title       string `json:"title" validate:"notblank,max=100"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date" validate:"notblank"`
	Icon        string `json:"icon,omitempty" validate:"max=50"`
	Location    string `json:"location,omitempty" validate:"max=200"`
}

type JourneyPatch struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,notblank,max=100"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty" validate:"omitempty,notblank"`
	Icon        *string `json:"icon,omitempty" validate:"omitempty,max=50"`
	Location    *string `json:"location,omitempty" validate:"omitempty,max=200"`
}

// Profile describes one of the two people the garden belongs to.
type Profile struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Nickname  string     `json:"nickname,omitempty"`
	Bio       string     `json:"bio,omitempty"`
	AvatarURL string     `json:"avatarUrl,omitempty"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Favorites Tags       `json:"favorites"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type ProfileDTO struct {
	Name      string  `json:"name" validate:"notblank,max=100"`
	Nickname  string  `json:"nickname,omitempty" validate:"max=50"`
	Bio       string  `json:"bio,omitempty" validate:"max=2000"`
	AvatarURL string  `json:"avatarUrl,omitempty"`
	Birthday  *string `json:"birthday,omitempty"`
	Favorites Tags    `json:"favorites"`
}

type ProfilePatch struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,notblank,max=100"`
	Nickname  *string `json:"nickname,omitempty" validate:"omitempty,max=50"`
	Bio       *string `json:"bio,omitempty" validate:"omitempty,max=2000"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
	Birthday  *string `json:"birthday,omitempty"`
	Favorites *Tags   `json:"favorites,omitempty"`
}

// GalleryImage is a standalone uploaded picture.
type GalleryImage struct {
	ID        string     `json:"id"`
	URL       string     `json:"url"`
	Caption   string     `json:"caption,omitempty"`
	Category  string     `json:"category,omitempty"`
	TakenAt   *time.Time `json:"takenAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// GalleryPatch edits the metadata of an uploaded picture.
type GalleryPatch struct {
	Caption  *string `json:"caption,omitempty" validate:"omitempty,max=300"`
	Category *string `json:"category,omitempty" validate:"omitempty,max=50"`
	TakenAt  *string `json:"takenAt,omitempty"`
}

// TravelLog records a trip.
type TravelLog struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Destination string     `json:"destination"`
	Country     string     `json:"country,omitempty"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Story       string     `json:"story,omitempty"`
	CoverImage  string     `json:"coverImage,omitempty"`
	Tags        Tags       `json:"tags"`
	Rating      int        `json:"rating,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type TravelDTO struct {
	Destination string  `json:"destination" validate:"notblank,max=100"`
	Country     string  `json:"country,omitempty" validate:"max=100"`
	StartDate   string  `json:"startDate" validate:"notblank"`
	EndDate     *string `json:"endDate,omitempty"`
	Story       string  `json:"story,omitempty"`
	CoverImage  string  `json:"coverImage,omitempty"`
	Tags        Tags    `json:"tags"`
	Rating      int     `json:"rating,omitempty" validate:"min=0,max=5"`
}

type TravelPatch struct {
	Destination *string `json:"destination,omitempty" validate:"omitempty,notblank,max=100"`
	Country     *string `json:"country,omitempty" validate:"omitempty,max=100"`
	StartDate   *string `json:"startDate,omitempty" validate:"omitempty,notblank"`
	EndDate     *string `json:"endDate,omitempty"`
	Story       *string `json:"story,omitempty"`
	CoverImage  *string `json:"coverImage,omitempty"`
	Tags        *Tags   `json:"tags,omitempty"`
	Rating      *int    `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
}

// ContactMessage is a guestbook/contact form submission.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ContactDTO struct {
	Name    string `json:"name" validate:"notblank,max=100"`
	Email   string `json:"email" validate:"required,email,max=200"`
	Subject string `json:"subject,omitempty" validate:"max=200"`
	Message string `json:"message" validate:"notblank,max=5000"`
}

// ContactPatch only toggles the read flag.
type ContactPatch struct {
	Read *bool `json:"read,omitempty"`
}

// OptionalDate parses an optional date input field.
func OptionalDate(field string, s *string) (*time.Time, error) {
	return parseOptionalDate(field, s)
}

// DateOr parses s, falling back to def when s is blank.
func DateOr(field, s string, def time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return ParseDate(field, s)
}
