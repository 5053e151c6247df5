package http

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Validator adapts go-playground/validator to echo.Validator
type Validator struct {
	validator *validator.Validate
}

// NewValidator returns a validator that reports fields by their JSON names
// and understands the notblank tag.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("notblank", validators.NotBlank)

	return &Validator{validator: v}
}

// Validate validates structs
func (v *Validator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}
