package forms

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Values holds submitted form values keyed by field name.
type Values map[string]string

// FromPostForm copies the fields of f declared for mode out of a parsed
// request body. Text values are trimmed; passwords are kept verbatim.
func (f *Form) FromPostForm(mode Mode, form url.Values) Values {
	values := make(Values)
	for _, field := range f.Fields(mode) {
		raw := form.Get(field.Name)
		switch field.Type {
		case TypePassword:
			values[field.Name] = raw
		case TypeCheckbox:
			if isChecked(raw) {
				values[field.Name] = "true"
			} else {
				values[field.Name] = "false"
			}
		default:
			values[field.Name] = strings.TrimSpace(raw)
		}
	}
	return values
}

// Get returns the value for name.
func (v Values) Get(name string) string {
	return v[name]
}

// Bool interprets a checkbox value.
func (v Values) Bool(name string) bool {
	return isChecked(v[name])
}

// FieldError describes the first failed rule of one field.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// FieldErrors is an ordered set of field failures.
type FieldErrors []FieldError

// Error implements error so a failed validation can travel as one.
func (fe FieldErrors) Error() string {
	msgs := make([]string, len(fe))
	for i, e := range fe {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// For returns the message for field, if any.
func (fe FieldErrors) For(field string) string {
	for _, e := range fe {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// Validate checks values against the rules of every editable field in mode.
// It returns nil when all fields pass.
func (f *Form) Validate(mode Mode, values Values) FieldErrors {
	var errs FieldErrors
	for _, field := range f.Fields(mode) {
		if field.ReadOnly(mode) {
			continue
		}
		value := values.Get(field.Name)

		if field.Type == TypePassword && field.Required() && strings.TrimSpace(value) == "" && field.Equals == "" {
			errs = append(errs, FieldError{Field: field.Name, Label: field.Label, Message: fmt.Sprintf("%s is required", field.Label)})
			continue
		}

		if field.Rules != "" {
			if err := f.validate.Var(value, field.Rules); err != nil {
				errs = append(errs, FieldError{Field: field.Name, Label: field.Label, Message: describe(field, err)})
				continue
			}
		}

		if field.Equals != "" {
			if err := f.validate.VarWithValue(value, values.Get(field.Equals), "eqfield"); err != nil {
				other := field.Equals
				if target, ok := f.Field(field.Equals); ok {
					other = target.Label
				}
				errs = append(errs, FieldError{Field: field.Name, Label: field.Label, Message: fmt.Sprintf("%s does not match %s", field.Label, strings.ToLower(other))})
			}
		}
	}
	return errs
}

func describe(field Field, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Sprintf("%s is invalid", field.Label)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field.Label)
	case "email":
		return "Enter a valid e-mail address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field.Label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field.Label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field.Label)
	}
}

func isChecked(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}
