package auth

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput means a credential pair failed validation.
var ErrInvalidInput = errors.New("invalid credentials")

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Credentials is the request body of register and login.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1,max=72"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the credential pair and describes the first failing field.
func (c Credentials) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		if len(c.Password) > MaxPasswordBytes {
			return fmt.Errorf("%w: password must not exceed %d bytes", ErrInvalidInput, MaxPasswordBytes)
		}
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, validationMessage(fieldErrs[0]))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}
