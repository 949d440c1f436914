package garden

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// Known memory categories. Category is open-ended; these are the values the
// authoring UI offers.
const (
	CategoryFirstDate   = "First Date"
	CategoryAnniversary = "Anniversary"
	CategoryTravel      = "Travel"
	CategoryRandom      = "Random"
	CategoryLetters     = "Letters"
)

// Moods a memory may carry. The empty string means "no mood".
var Moods = []string{"sweet", "silly", "serious", "romantic", "adventure", "chill"}

// IsMood reports whether s is empty or one of Moods.
func IsMood(s string) bool {
	if s == "" {
		return true
	}
	for _, m := range Moods {
		if m == s {
			return true
		}
	}
	return false
}

// Memory is the primary entity.
type Memory struct {
	ID        string        `json:"id"`
	Slug      string        `json:"slug,omitempty"`
	Title     string        `json:"title"`
	Date      time.Time     `json:"date"`
	Category  string        `json:"category"`
	Tags      Tags          `json:"tags"`
	Mood      string        `json:"mood,omitempty"`
	Quote     string        `json:"quote,omitempty"`
	Story     string        `json:"story,omitempty"`
	Location  string        `json:"location,omitempty"`
	Images    []MemoryImage `json:"images"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// MemoryImage is owned by exactly one memory.
type MemoryImage struct {
	ID        string    `json:"id"`
	MemoryID  string    `json:"memoryId,omitempty"`
	URL       string    `json:"url"`
	Alt       string    `json:"alt,omitempty"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// ImageDTO pre-populates an image by URL on create.
type ImageDTO struct {
	URL string `json:"url" validate:"notblank,imageurl"`
	Alt string `json:"alt,omitempty" validate:"max=200"`
}

// MemoryDTO is the write model for a memory.
type MemoryDTO struct {
	Slug     string     `json:"slug,omitempty" validate:"max=160"`
	Title    string     `json:"title" validate:"notblank,max=100"`
	Date     string     `json:"date" validate:"notblank"`
	Category string     `json:"category" validate:"notblank,max=50"`
	Tags     Tags       `json:"tags"`
	Mood     string     `json:"mood,omitempty" validate:"mood"`
	Quote    string     `json:"quote,omitempty" validate:"max=500"`
	Story    string     `json:"story,omitempty"`
	Location string     `json:"location,omitempty" validate:"max=200"`
	Images   []ImageDTO `json:"images,omitempty" validate:"dive"`
}

// Normalize trims text fields and canonicalizes tags in place.
func (d *MemoryDTO) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Category = strings.TrimSpace(d.Category)
	d.Mood = strings.TrimSpace(d.Mood)
	d.Location = strings.TrimSpace(d.Location)
	d.Tags = Normalize(d.Tags)
}

// Validate checks required fields and returns the parsed date.
func (d *MemoryDTO) Validate() (time.Time, error) {
	if err := Check(d); err != nil {
		return time.Time{}, err
	}
	return ParseDate("date", d.Date)
}

// MemoryPatch is a partial MemoryDTO. Nil fields are left unchanged.
type MemoryPatch struct {
	Slug     *string `json:"slug,omitempty" validate:"omitempty,max=160"`
	Title    *string `json:"title,omitempty" validate:"omitempty,notblank,max=100"`
	Date     *string `json:"date,omitempty" validate:"omitempty,notblank"`
	Category *string `json:"category,omitempty" validate:"omitempty,notblank,max=50"`
	Tags     *Tags   `json:"tags,omitempty"`
	Mood     *string `json:"mood,omitempty" validate:"omitempty,mood"`
	Quote    *string `json:"quote,omitempty" validate:"omitempty,max=500"`
	Story    *string `json:"story,omitempty"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=200"`
}

// Normalize trims text fields and canonicalizes tags in place.
func (p *MemoryPatch) Normalize() {
	trimPtr(p.Title)
	trimPtr(p.Category)
	trimPtr(p.Mood)
	trimPtr(p.Location)
	if p.Tags != nil {
		t := Normalize(*p.Tags)
		p.Tags = &t
	}
}

// Validate checks the present fields and returns the parsed date, if any.
func (p *MemoryPatch) Validate() (*time.Time, error) {
	if err := Check(p); err != nil {
		return nil, err
	}
	return parseOptionalDate("date", p.Date)
}

// Empty reports whether the patch changes nothing.
func (p *MemoryPatch) Empty() bool {
	return p.Slug == nil && p.Title == nil && p.Date == nil && p.Category == nil &&
		p.Tags == nil && p.Mood == nil && p.Quote == nil && p.Story == nil && p.Location == nil
}

// Apply merges the patch onto m. The patch must have been validated.
func (p *MemoryPatch) Apply(m *Memory) error {
	date, err := p.Validate()
	if err != nil {
		return err
	}
	if p.Slug != nil {
		m.Slug = *p.Slug
	}
	if p.Title != nil {
		m.Title = *p.Title
	}
	if date != nil {
		m.Date = *date
	}
	if p.Category != nil {
		m.Category = *p.Category
	}
	if p.Tags != nil {
		m.Tags = Normalize(*p.Tags)
	}
	if p.Mood != nil {
		m.Mood = *p.Mood
	}
	if p.Quote != nil {
		m.Quote = *p.Quote
	}
	if p.Story != nil {
		m.Story = *p.Story
	}
	if p.Location != nil {
		m.Location = *p.Location
	}
	return nil
}

// MemoryFilter narrows List queries. Nil fields do not filter.
type MemoryFilter struct {
	Category  *string
	Mood      *string
	Search    *string
	StartDate *time.Time
	EndDate   *time.Time
}

// Query encodes only the fields that are set.
func (f *MemoryFilter) Query() url.Values {
	q := url.Values{}
	if f == nil {
		return q
	}
	setString(q, "category", f.Category)
	setString(q, "mood", f.Mood)
	setString(q, "search", f.Search)
	setTime(q, "startDate", f.StartDate)
	setTime(q, "endDate", f.EndDate)
	return q
}

// ParseMemoryFilter is the server-side inverse of Query.
func ParseMemoryFilter(q url.Values) (*MemoryFilter, error) {
	f := &MemoryFilter{
		Category: getString(q, "category"),
		Mood:     getString(q, "mood"),
		Search:   getString(q, "search"),
	}
	var err error
	if f.StartDate, err = getTime(q, "startDate"); err != nil {
		return nil, err
	}
	if f.EndDate, err = getTime(q, "endDate"); err != nil {
		return nil, err
	}
	return f, nil
}

// Matches reports whether m satisfies every predicate of the filter.
func (f *MemoryFilter) Matches(m Memory) bool {
	if f == nil {
		return true
	}
	if f.Category != nil && m.Category != *f.Category {
		return false
	}
	if f.Mood != nil && m.Mood != *f.Mood {
		return false
	}
	if f.Search != nil && !MatchesSearch(*f.Search, m.Title, m.Tags) {
		return false
	}
	return inRange(m.Date, f.StartDate, f.EndDate)
}

// MatchesSearch is the case-insensitive substring match against a title and
// any of its tags.
func MatchesSearch(needle, title string, tags Tags) bool {
	if strings.Contains(strings.ToLower(title), strings.ToLower(needle)) {
		return true
	}
	return tags.ContainsFold(needle)
}

// SortMemories orders memories newest-first by date.
func SortMemories(ms []Memory) {
	sort.SliceStable(ms, func(i, j int) bool {
		return newer(ms[i].Date, ms[j].Date, ms[i].CreatedAt, ms[j].CreatedAt, ms[i].ID, ms[j].ID)
	})
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

func newer(a, b, createdA, createdB time.Time, idA, idB string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	if !createdA.Equal(createdB) {
		return createdA.After(createdB)
	}
	return idA > idB
}

func inRange(t time.Time, start, end *time.Time) bool {
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && t.After(*end) {
		return false
	}
	return true
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func setString(q url.Values, key string, v *string) {
	if v != nil {
		q.Set(key, *v)
	}
}

func setTime(q url.Values, key string, v *time.Time) {
	if v != nil {
		q.Set(key, FormatDate(*v))
	}
}

func getString(q url.Values, key string) *string {
	if _, ok := q[key]; !ok {
		return nil
	}
	v := q.Get(key)
	return &v
}

func getTime(q url.Values, key string) (*time.Time, error) {
	v := getString(q, key)
	if v == nil {
		return nil, nil
	}
	t, err := ParseDate(key, *v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
