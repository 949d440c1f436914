package garden

import (
	"bytes"
	"fmt"
	"net/http"
)

// Upload is one file of a multipart batch.
type Upload struct {
	Filename string
	Data     []byte
}

// UploadLimits bound a batch of image uploads. Zero disables a limit.
type UploadLimits struct {
	MaxFiles     int
	MaxFileSize  int64
	MaxPerEntity int
}

var DefaultUploadLimits = UploadLimits{MaxFiles: 10, MaxFileSize: 5 * 1024 * 1024, MaxPerEntity: 30}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// DetectImageType sniffs the content type of data and rejects anything that
// is not an accepted image format.
func DetectImageType(data []byte) (string, error) {
	mimeType := http.DetectContentType(data)
	if len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		mimeType = "image/webp"
	}
	if !allowedImageTypes[mimeType] {
		return "", fmt.Errorf("%w: invalid content type: expected image, got %s", ErrUpload, mimeType)
	}
	return mimeType, nil
}

// CheckBatch validates every file before anything is written and returns the
// sniffed content types in upload order.
func (l UploadLimits) CheckBatch(files []Upload) ([]string, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files uploaded", ErrUpload)
	}
	if l.MaxFiles > 0 && len(files) > l.MaxFiles {
		return nil, fmt.Errorf("%w: maximum %d files per batch", ErrUpload, l.MaxFiles)
	}
	types := make([]string, len(files))
	for i, f := range files {
		if len(f.Data) == 0 {
			return nil, fmt.Errorf("%w: %s is empty", ErrUpload, f.Filename)
		}
		if l.MaxFileSize > 0 && int64(len(f.Data)) > l.MaxFileSize {
			return nil, fmt.Errorf("%w: %s is %d bytes (max: %d)", ErrTooLarge, f.Filename, len(f.Data), l.MaxFileSize)
		}
		mimeType, err := DetectImageType(f.Data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Filename, err)
		}
		types[i] = mimeType
	}
	return types, nil
}

// CheckCapacity rejects a batch that would push an entity past MaxPerEntity.
func (l UploadLimits) CheckCapacity(existing, adding int) error {
	if l.MaxPerEntity > 0 && existing+adding > l.MaxPerEntity {
		return fmt.Errorf("%w: at most %d images per entry (has %d)", ErrUpload, l.MaxPerEntity, existing)
	}
	return nil
}
