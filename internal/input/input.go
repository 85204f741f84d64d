// Package input validates user-supplied form values before anything is sent
// to the backend. Messages are field-scoped, keyed by the json tag name.
package input

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	// Report on json tag instead of struct field name
	// Look at documentation of 'RegisterTagNameFunc' for more details
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Register struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,oneof=admin editor viewer"`
}

// Invite is the admin-side variant of Register: same fields, but the role
// must be picked explicitly.
type Invite struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,oneof=admin editor viewer"`
}

type ResetPassword struct {
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// FieldErrors maps field name to a user-facing message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for name := range e {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, name := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks struct tags and returns FieldErrors on failure.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	// pretty sure cast will be ok cause v is expected to be a valid struct
	errs := err.(validator.ValidationErrors)

	fields := make(FieldErrors, len(errs))
	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required"
		case "email":
			message = "Invalid email address"
		case "min":
			message = fmt.Sprintf("Value is too short (minimum %s)", fieldError.Param())
		case "eqfield":
			message = "Passwords don't match"
		case "oneof":
			message = fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fieldError.Param(), " ", ", "))
		default:
			message = "Invalid value"
		}

		fields[fieldError.Field()] = message
	}

	return fields
}
