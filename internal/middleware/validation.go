package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/pkg/httputil"
)

// ValidationConfig represents validation middleware configuration
type ValidationConfig struct {
	CustomValidators    map[string]validator.Func
	CustomErrorMessages map[string]string
}

func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		CustomErrorMessages: map[string]string{
			"required": "Field is required",
			"min":      "Value is too small",
			"max":      "Value is too large",
			"doctype":  "Unknown document type",
		},
	}
}

// DocumentTypeRule backs the "doctype" tag: the value must name a
// configured document type, ignoring case.
func DocumentTypeRule(ref *model.Reference) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, ok := ref.LookupDocumentType(fl.Field().String())
		return ok
	}
}

// RegisterValidators installs the custom rules and JSON field naming on
// gin's validator engine. It must run before the first request is bound.
func RegisterValidators(config ValidationConfig) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}

	for tag, fn := range config.CustomValidators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if tag == "" {
			tag = fld.Tag.Get("form")
		}
		name := strings.SplitN(tag, ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return nil
}

// Validation renders binding failures as per-field errors.
func Validation(config ValidationConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		var fields []httputil.FieldError
		for _, err := range c.Errors {
			var errs validator.ValidationErrors
			if !errors.As(err.Err, &errs) {
				continue
			}
			for _, e := range errs {
				msg := config.CustomErrorMessages[e.Tag()]
				if msg == "" {
					msg = e.Error()
				}
				fields = append(fields, httputil.FieldError{
					Field:   e.Field(),
					Message: msg,
				})
			}
		}

		if len(fields) > 0 {
			httputil.RespondWithValidation(c, fields)
		}
	}
}
