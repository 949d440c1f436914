package slug

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBase(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"Our First Meeting", "our-first-meeting"},
		{"Beach Adventure!", "beach-adventure"},
		{"  Leading and Trailing  ", "leading-and-trailing"},
		{"Multiple   Spaces___and--dashes", "multiple-spaces-and-dashes"},
		{"Test!@#$%^&*()+", "test"},
		{"-dash-", "dash"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.expected, Base(tt.title))
		})
	}
}

func TestGenerateAppendsBase36Timestamp(t *testing.T) {
	fixed := time.UnixMilli(1673740800000)
	g := NewGeneratorWithClock(func() time.Time { return fixed })

	s := g.Generate("Our First Meeting")
	assert.True(t, strings.HasPrefix(s, "our-first-meeting-"))
	assert.Equal(t, "our-first-meeting-lcwm22o0", s)
}

func TestGenerateUniqueForDuplicateTitles(t *testing.T) {
	fixed := time.UnixMilli(1000)
	g := NewGeneratorWithClock(func() time.Time { return fixed })

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		s := g.Generate("Same Title")
		assert.False(t, seen[s], "duplicate slug %s", s)
		seen[s] = true
	}
}

func TestGenerateEmptyTitle(t *testing.T) {
	g := NewGeneratorWithClock(func() time.Time { return time.UnixMilli(36) })
	assert.Equal(t, "10", g.Generate("!!!"))
}
