package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/relaxflow/core/internal/domain/entities"
)

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validator checks request structs once per submission and reports field errors.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator that names fields by their JSON keys.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("deviceid", func(fl validator.FieldLevel) bool {
		return deviceIDPattern.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Struct validates s and converts failures to *entities.ValidationError.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &entities.ValidationError{Message: "invalid request", Fields: nil}
	}

	fields := make([]entities.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, entities.FieldError{
			Field:   fieldPath(fe),
			Message: message(fe),
		})
	}
	return &entities.ValidationError{Message: "validation failed", Fields: fields}
}

// Validate lets Validator serve as echo's request validator.
func (v *Validator) Validate(i interface{}) error {
	return v.Struct(i)
}

// fieldPath drops Go type names (the root struct and embedded structs) from the
// namespace, e.g. "UpdateOwnerRequest.locations[0].name" becomes "locations[0].name".
func fieldPath(fe validator.FieldError) string {
	segments := strings.Split(fe.Namespace(), ".")
	kept := segments[:0]
	for i, seg := range segments {
		if i == 0 || seg == "" {
			continue
		}
		if r := seg[0]; r >= 'A' && r <= 'Z' {
			continue
		}
		kept = append(kept, seg)
	}
	if len(kept) == 0 {
		return fe.Field()
	}
	return strings.Join(kept, ".")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "deviceid":
		return "may only contain letters, digits, '-' and '_'"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
