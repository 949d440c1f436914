package garden

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = validate.RegisterValidation("imageurl", func(fl validator.FieldLevel) bool {
			return !hasDotDotSegment(fl.Field().String())
		})
		_ = validate.RegisterValidation("mood", func(fl validator.FieldLevel) bool {
			return IsMood(fl.Field().String())
		})
	})
	return validate
}

// Check runs struct-tag validation and reports the first failing field as a
// *FieldError.
func Check(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &FieldError{Message: err.Error()}
	}
	fe := verrs[0]
	return &FieldError{Field: fe.Field(), Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "imageurl":
		return "must not contain .. path segments"
	case "mood":
		return "must be one of: " + strings.Join(Moods, ", ")
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

// hasDotDotSegment reports whether the path part of a URL climbs out of its
// directory.
func hasDotDotSegment(raw string) bool {
	if strings.HasPrefix(raw, "data:") {
		return false
	}
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	for _, seg := range strings.FieldsFunc(raw, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." || strings.EqualFold(seg, "%2e%2e") {
			return true
		}
	}
	return false
}
