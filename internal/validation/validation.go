package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a field name to its list of problems, the shape the
// client renders next to each input.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct runs validator tags over a request struct and flattens the
// result into FieldErrors keyed by the json field name.
func Struct(s interface{}) FieldErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs := FieldErrors{}
		errs.Add("body", "invalid request")
		return errs
	}

	errs := FieldErrors{}
	for _, fe := range verrs {
		errs.Add(strings.ToLower(fe.Field()), messageFor(fe))
	}
	return errs
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "eqfield":
		return "must match " + strings.ToLower(fe.Param())
	case "uuid":
		return "must be a valid id"
	default:
		return "is invalid"
	}
}
