package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/internportal/internal/pkg/validation"
)

// RegisterValidators adds the portal's custom tags to gin's validator:
// "isodate" (YYYY-MM-DD) and "portalname" (trimmed display name).
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	if err := v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return validation.CompiledPatterns.Date.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("portalname", func(fl validator.FieldLevel) bool {
		return validation.IsValidName(fl.Field().String())
	})
}
