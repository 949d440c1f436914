package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ourgarden/backend/internal/services"
	"github.com/ourgarden/backend/pkg/garden"
)

// readUploads reads every file of the multipart field into memory. The body
// is capped at one full batch plus form overhead; per-file limits are checked
// by the services.
func readUploads(c *gin.Context, field string, limits services.UploadLimits) ([]services.Upload, error) {
	if limits.MaxFiles > 0 && limits.MaxFileSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(limits.MaxFiles)*limits.MaxFileSize+1<<20)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, fmt.Errorf("%w: request body exceeds %d bytes", garden.ErrTooLarge, tooBig.Limit)
		}
		return nil, fmt.Errorf("%w: expected multipart form with field %q", garden.ErrUpload, field)
	}

	headers := form.File[field]
	uploads := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open %s", garden.ErrUpload, fh.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read %s", garden.ErrUpload, fh.Filename)
		}
		uploads = append(uploads, services.Upload{Filename: fh.Filename, Data: data})
	}
	return uploads, nil
}
