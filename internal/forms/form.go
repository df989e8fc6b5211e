// Package forms describes the fields of a step form and validates submitted
// input against them.
package forms

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/garyjia/possession-response/internal/domain/journey"
)

// Kind is the input control a field renders as
type Kind string

const (
	KindText  Kind = "text"
	KindRadio Kind = "radio"
	KindDate  Kind = "date"
)

// Option is one choice of a radio field
type Option struct {
	Value string
	Label string
}

// Field describes one form input. Rules use validator tag syntax.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Options  []Option
	Rules    string
	Messages map[string]string
}

// FieldErrors maps field name to a user-facing message
type FieldErrors map[string]string

// Has reports whether any error was recorded
func (e FieldErrors) Has() bool {
	return len(e) > 0
}

// Fields returns the names of the fields in error, sorted
func (e FieldErrors) Fields() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Form is the set of fields collected on one step
type Form struct {
	Fields []Field
	// Check runs after field rules pass and reports cross-field errors
	Check func(values map[string]string) FieldErrors
}

// Validator validates submitted input against a form
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the custom rules registered
func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &Validator{validate: v}
}

// Validate checks input against the form and returns the cleaned form data
// together with any field errors. Input values are trimmed.
func (v *Validator) Validate(form Form, input map[string]string) (journey.FormData, FieldErrors) {
	values := make(map[string]string, len(form.Fields))
	data := make(map[string]interface{}, len(form.Fields))
	rules := make(map[string]interface{}, len(form.Fields))

	for _, f := range form.Fields {
		value := strings.TrimSpace(input[f.Name])
		values[f.Name] = value
		data[f.Name] = value
		if f.Rules != "" {
			rules[f.Name] = f.Rules
		}
	}

	errs := make(FieldErrors)
	for name, raw := range v.validate.ValidateMap(data, rules) {
		field := form.field(name)
		errs[name] = message(field, raw)
	}

	if !errs.Has() && form.Check != nil {
		for name, msg := range form.Check(values) {
			errs[name] = msg
		}
	}

	out := make(journey.FormData, len(values))
	for k, val := range values {
		out[k] = val
	}
	if errs.Has() {
		return out, errs
	}
	return out, nil
}

func (f Form) field(name string) Field {
	for _, field := range f.Fields {
		if field.Name == name {
			return field
		}
	}
	return Field{Name: name}
}

// message translates the first failed rule of a field into text
func message(field Field, raw interface{}) string {
	tag := "invalid"
	if err, ok := raw.(error); ok {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			tag = verrs[0].Tag()
		}
	}

	if msg, ok := field.Messages[tag]; ok {
		return msg
	}

	label := field.Label
	if label == "" {
		label = field.Name
	}
	switch tag {
	case "required", "notblank":
		if field.Kind == KindRadio {
			return "Select an option for " + strings.ToLower(label)
		}
		return "Enter " + strings.ToLower(label)
	case "oneof":
		return "Select a valid option for " + strings.ToLower(label)
	case "max":
		return strings.TrimSpace(label) + " is too long"
	case "numeric":
		return strings.TrimSpace(label) + " must be a number"
	case "postcode_iso3166_alpha2":
		return "Enter a real postcode"
	default:
		return strings.TrimSpace(label) + " is not valid"
	}
}
