package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/dd0wney/hivegraph/pkg/model"
)

// ErrInvalid marks every error returned by the entity validators
var ErrInvalid = errors.New("validation failed")

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Device guids and logins are opaque tokens without whitespace or control characters
	tokenPattern = regexp.MustCompile(`^[^\s\x00-\x1f\x7f]+$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("token", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || tokenPattern.MatchString(s)
	})
	validate.RegisterStructValidation(validateListFilter, model.ListFilter{})
}

// FieldError describes the first failing field of a struct
type FieldError struct {
	Field string
	Tag   string
	Param string
}

func (e *FieldError) Error() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s: field is required", e.Field)
	case "max":
		return fmt.Sprintf("%s: must not exceed %s", e.Field, e.Param)
	case "gte", "min":
		return fmt.Sprintf("%s: must be at least %s", e.Field, e.Param)
	case "lte":
		return fmt.Sprintf("%s: must be at most %s", e.Field, e.Param)
	case "token":
		return fmt.Sprintf("%s: must not contain whitespace or control characters", e.Field)
	case "excluded_with":
		return fmt.Sprintf("%s: cannot be combined with %s", e.Field, e.Param)
	case "wildcard":
		return fmt.Sprintf("%s: %% is only allowed at the start or end", e.Field)
	default:
		return fmt.Sprintf("%s: validation failed (%s)", e.Field, e.Tag)
	}
}

// Unwrap makes every FieldError match ErrInvalid
func (e *FieldError) Unwrap() error {
	return ErrInvalid
}

// ValidateUser checks a user before it is stored
func ValidateUser(u *model.User) error {
	if u == nil {
		return fmt.Errorf("%w: user cannot be nil", ErrInvalid)
	}
	if err := Struct(u); err != nil {
		return err
	}
	return Var("Login", u.Login, "token")
}

// ValidateNetwork checks a network before it is stored
func ValidateNetwork(n *model.Network) error {
	if n == nil {
		return fmt.Errorf("%w: network cannot be nil", ErrInvalid)
	}
	return Struct(n)
}

// ValidateDevice checks a device before it is stored
func ValidateDevice(d *model.Device) error {
	if d == nil {
		return fmt.Errorf("%w: device cannot be nil", ErrInvalid)
	}
	if err := Struct(d); err != nil {
		return err
	}
	return Var("DeviceID", d.DeviceID, "token")
}

// ValidateListFilter checks paging and the name criteria of a list filter
func ValidateListFilter(f model.ListFilter) error {
	return Struct(f)
}

// validateListFilter rejects a filter with both an exact name and a pattern, or
// with a wildcard inside the pattern
func validateListFilter(sl validator.StructLevel) {
	f := sl.Current().Interface().(model.ListFilter)
	if f.Name != "" && f.NamePattern != "" {
		sl.ReportError(f.NamePattern, "NamePattern", "NamePattern", "excluded_with", "Name")
	}
	if _, ok := f.Pattern(); !ok {
		sl.ReportError(f.NamePattern, "NamePattern", "NamePattern", "wildcard", "")
	}
	if f.Take < 0 {
		sl.ReportError(f.Take, "Take", "Take", "gte", "0")
	}
	if f.Skip < 0 {
		sl.ReportError(f.Skip, "Skip", "Skip", "gte", "0")
	}
}

// Struct validates v against its validate tags
func Struct(v any) error {
	return formatValidationError(validate.Struct(v))
}

// Var validates a single value against tag, reporting it as field
func Var(field string, value any, tag string) error {
	err := formatValidationError(validate.Var(value, tag))
	var fe *FieldError
	if errors.As(err, &fe) {
		fe.Field = field
	}
	return err
}

// formatValidationError converts validator errors to a FieldError for the first failing field
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	e := validationErrs[0]
	return &FieldError{Field: e.Field(), Tag: e.Tag(), Param: e.Param()}
}
