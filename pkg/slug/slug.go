package slug

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// stripRegex matches characters outside word chars, whitespace and hyphen
	stripRegex = regexp.MustCompile(`[^\w\s-]`)
	// separatorRegex matches runs of whitespace, underscores and hyphens
	separatorRegex = regexp.MustCompile(`[\s_-]+`)
)

// Base lower-cases the title and reduces it to hyphen-separated words.
func Base(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = stripRegex.ReplaceAllString(s, "")
	s = separatorRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Generator appends a base-36 millisecond timestamp to the slug base. The
// suffix strictly increases per generator, so two identical titles created
// in the same millisecond still get different slugs.
type Generator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewGenerator returns a generator using the wall clock.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// NewGeneratorWithClock is used by tests to pin time.
func NewGeneratorWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Generate builds "<base>-<base36 timestamp>".
func (g *Generator) Generate(title string) string {
	g.mu.Lock()
	ts := g.now().UnixMilli()
	if ts <= g.last {
		ts = g.last + 1
	}
	g.last = ts
	g.mu.Unlock()

	suffix := strconv.FormatInt(ts, 36)
	base := Base(title)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

var defaultGenerator = NewGenerator()

// Generate uses the process-wide generator.
func Generate(title string) string {
	return defaultGenerator.Generate(title)
}
