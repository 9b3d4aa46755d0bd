package http

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// registerValidators adds the domain tags used in request bodies to gin's
// validator engine and reports fields by their JSON names.
func registerValidators(logger *slog.Logger) {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})

		rules := map[string]validator.Func{
			"district": func(fl validator.FieldLevel) bool {
				return domain.IsDistrict(fl.Field().String())
			},
			"threshold": func(fl validator.FieldLevel) bool {
				return domain.ValidThreshold(domain.StationStatus(fl.Field().String()))
			},
			"theme": func(fl validator.FieldLevel) bool {
				return domain.Theme(fl.Field().String()).Valid()
			},
			"trend": func(fl validator.FieldLevel) bool {
				return domain.Trend(fl.Field().String()).Valid()
			},
			"nowhitespace": func(fl validator.FieldLevel) bool {
				return !strings.ContainsAny(fl.Field().String(), " \t\r\n")
			},
		}
		for tag, fn := range rules {
			if err := v.RegisterValidation(tag, fn); err != nil {
				logger.Error("register validator failed", "tag", tag, "error", err)
			}
		}
	})
}

// bindingMessage turns binder errors into a short client message.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	field, _, _ := strings.Cut(fe.Field(), "[")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s must be between 0 and %.0f", field, domain.MaxLevel)
	case "district":
		return fmt.Sprintf("%s contains an unknown district", field)
	case "threshold":
		return fmt.Sprintf("%s must be one of warning, danger, critical", field)
	case "theme":
		return fmt.Sprintf("%s must be one of light, dark, system", field)
	case "trend":
		return fmt.Sprintf("%s must be one of rising, falling, stable", field)
	case "nowhitespace":
		return fmt.Sprintf("%s must not contain whitespace", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
