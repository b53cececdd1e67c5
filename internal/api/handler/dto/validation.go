package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"loan-engine/internal/pkg/apperrors"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks struct tags and reports failures as apperrors.FieldErrors keyed by JSON name.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
	}

	fe := apperrors.FieldErrors{}
	for _, e := range verrs {
		fe.Add(e.Field(), fieldMessage(e))
	}
	return fe
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required."
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", e.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", e.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", e.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", e.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", e.Param())
	default:
		return "Invalid value."
	}
}
