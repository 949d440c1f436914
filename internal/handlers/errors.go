package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ourgarden/backend/pkg/garden"
)

// respondError writes the taxonomy error as {error, field?}. Server-side
// failures are logged and reported without internals.
func respondError(c *gin.Context, err error) {
	status := garden.StatusOf(err)
	body := gin.H{"error": err.Error()}

	var fe *garden.FieldError
	if errors.As(err, &fe) {
		body["error"] = fe.Error()
		if fe.Field != "" {
			body["field"] = fe.Field
		}
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		body = gin.H{"error": "internal server error"}
	}
	c.AbortWithStatusJSON(status, body)
}

// bindJSON decodes the request body, reporting malformed input as a
// validation error.
func bindJSON(c *gin.Context, v any) error {
	err := c.ShouldBindJSON(v)
	if err == nil {
		return nil
	}
	var fe *garden.FieldError
	if errors.As(err, &fe) {
		return fe
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return garden.NewFieldError(typeErr.Field, "must be a %s", typeErr.Type.Kind())
	}
	return garden.NewFieldError("", "invalid JSON body")
}

func message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}
