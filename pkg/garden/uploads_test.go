package garden

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func TestDetectImageType(t *testing.T) {
	ct, err := DetectImageType(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	webp := []byte("RIFF\x00\x00\x00\x00WEBPVP8 ")
	ct, err = DetectImageType(webp)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", ct)

	_, err = DetectImageType([]byte("plain text, not an image"))
	assert.ErrorIs(t, err, ErrUpload)
}

func TestCheckBatch(t *testing.T) {
	l := UploadLimits{MaxFiles: 2, MaxFileSize: 64}
	png := Upload{Filename: "a.png", Data: pngHeader}

	types, err := l.CheckBatch([]Upload{png, png})
	require.NoError(t, err)
	assert.Equal(t, []string{"image/png", "image/png"}, types)

	_, err = l.CheckBatch(nil)
	assert.ErrorIs(t, err, ErrUpload)
	_, err = l.CheckBatch([]Upload{png, png, png})
	assert.ErrorIs(t, err, ErrUpload)
	_, err = l.CheckBatch([]Upload{{Filename: "empty.png"}})
	assert.ErrorIs(t, err, ErrUpload)

	big := Upload{Filename: "big.png", Data: append(append([]byte(nil), pngHeader...), make([]byte, 64)...)}
	_, err = l.CheckBatch([]Upload{png, big})
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, 413, StatusOf(err))
}

func TestCheckCapacity(t *testing.T) {
	l := UploadLimits{MaxPerEntity: 3}
	assert.NoError(t, l.CheckCapacity(1, 2))
	assert.ErrorIs(t, l.CheckCapacity(2, 2), ErrUpload)
	assert.NoError(t, UploadLimits{}.CheckCapacity(100, 100))
}
