package auth

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/volunteerhub/portal/internal/shared"
)

const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_@+.-]+$`)

// Validator applies the account rules shared with the backend.
type Validator struct {
	validate *validator.Validate
}

// NewValidator registers the username and password tags and reports fields by their JSON name.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameProblem(fl.Field().String()) == ""
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return passwordProblem(fl.Field().String()) == ""
	})
	return &Validator{validate: v}
}

// Struct validates one of the form types and returns a ValidationError listing every failing field.
func (v *Validator) Struct(form any) error {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("auth: validate: %w", err)
	}
	fields := make(map[string][]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
	}
	return shared.ValidationError("invalid input", fields)
}

// Username checks a single username, as the availability lookup needs.
func (v *Validator) Username(username string) error {
	form := struct {
		Username string `json:"username" validate:"required,max=20,username"`
	}{Username: username}
	return v.Struct(form)
}

// PortalRole rejects roles that cannot use the volunteer/NPO portal.
func PortalRole(role Role) error {
	if role == RoleVolunteer || role == RoleOrganizer {
		return nil
	}
	return shared.ValidationError("invalid input", map[string][]string{
		"Character": {"account type must be volunteer or npo"},
	})
}

func fieldMessage(fe validator.FieldError) string {
	value, _ := fe.Value().(string)
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "username":
		return usernameProblem(value)
	case "password":
		return passwordProblem(value)
	default:
		return "is invalid"
	}
}

func usernameProblem(username string) string {
	if !usernamePattern.MatchString(username) {
		return "may only contain letters, digits and _ @ + . -"
	}
	if !strings.ContainsFunc(username, isASCIILetter) {
		return "must contain at least one letter"
	}
	return ""
}

func passwordProblem(password string) string {
	switch {
	case !strings.ContainsFunc(password, unicode.IsUpper):
		return "must contain an upper-case letter"
	case !strings.ContainsFunc(password, unicode.IsLower):
		return "must contain a lower-case letter"
	case !strings.ContainsFunc(password, unicode.IsDigit):
		return "must contain a digit"
	case !strings.ContainsAny(password, passwordSpecials):
		return "must contain a special character (" + passwordSpecials + ")"
	}
	return ""
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
