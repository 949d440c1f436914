package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ourgarden/backend/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLimitsFromConfig(t *testing.T) {
	assert.Equal(t, DefaultUploadLimits, LimitsFromConfig(&config.Config{}))

	l := LimitsFromConfig(&config.Config{UploadMaxFiles: 3, UploadMaxImageSize: 1024, MaxImagesPerMemory: -1})
	assert.Equal(t, 3, l.MaxFiles)
	assert.EqualValues(t, 1024, l.MaxFileSize)
	assert.Equal(t, DefaultUploadLimits.MaxPerEntity, l.MaxPerEntity)
}

func TestCaptionFrom(t *testing.T) {
	assert.Equal(t, "summer evening", captionFrom("photos/summer_evening.jpg"))
	assert.Equal(t, "a b c", captionFrom(`C:\x\a-b_c.png`))
	assert.Equal(t, ".hidden", captionFrom(".hidden"))

	long := captionFrom(strings.Repeat("é", 400) + ".jpg")
	assert.True(t, utf8.ValidString(long))
	assert.Equal(t, 300, utf8.RuneCountInString(long))
}
