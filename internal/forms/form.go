// Package forms drives the user create and edit screens from one declarative
// field list instead of per-screen code.
package forms

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed user_form.yaml
var userFormYAML []byte

// Mode selects which fields of the form are active.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// FieldType determines how a field is rendered and read back.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeEmail    FieldType = "email"
	TypePassword FieldType = "password"
	TypeSelect   FieldType = "select"
	TypeCheckbox FieldType = "checkbox"
)

// Field is one entry of the form configuration.
type Field struct {
	Name        string    `yaml:"name"`
	Label       string    `yaml:"label"`
	Type        FieldType `yaml:"type"`
	Modes       []Mode    `yaml:"modes"`
	ReadOnlyIn  []Mode    `yaml:"readonly_in"`
	Rules       string    `yaml:"rules"`
	Equals      string    `yaml:"equals"`
	Help        string    `yaml:"help"`
	Placeholder string    `yaml:"placeholder"`
}

// In reports whether the field is part of mode.
func (f Field) In(mode Mode) bool {
	return containsMode(f.Modes, mode)
}

// ReadOnly reports whether the field is display-only in mode.
func (f Field) ReadOnly(mode Mode) bool {
	return containsMode(f.ReadOnlyIn, mode)
}

// Required reports whether the rules demand a value.
func (f Field) Required() bool {
	for _, r := range strings.Split(f.Rules, ",") {
		if strings.TrimSpace(r) == "required" {
			return true
		}
	}
	return f.Equals != ""
}

// Form is a parsed field configuration.
type Form struct {
	fields   []Field
	validate *validator.Validate
}

type document struct {
	Fields []Field `yaml:"fields"`
}

// Load parses the embedded user form configuration.
func Load(validate *validator.Validate) (*Form, error) {
	return Parse(userFormYAML, validate)
}

// Parse builds a Form from a YAML document.
func Parse(raw []byte, validate *validator.Validate) (*Form, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse form config: %w", err)
	}
	if validate == nil {
		validate = validator.New()
	}

	seen := make(map[string]struct{}, len(doc.Fields))
	for i, f := range doc.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("form field %d has no name", i)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("form field %q declared twice", f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.Type == "" {
			doc.Fields[i].Type = TypeText
		}
		if len(f.Modes) == 0 {
			doc.Fields[i].Modes = []Mode{ModeCreate, ModeEdit}
		}
		if err := checkRules(validate, f.Rules); err != nil {
			return nil, fmt.Errorf("form field %q: %w", f.Name, err)
		}
	}
	for _, f := range doc.Fields {
		if f.Equals == "" {
			continue
		}
		if _, ok := seen[f.Equals]; !ok {
			return nil, fmt.Errorf("form field %q must equal unknown field %q", f.Name, f.Equals)
		}
	}

	return &Form{fields: doc.Fields, validate: validate}, nil
}

// Fields returns the fields active in mode, in declaration order.
func (f *Form) Fields(mode Mode) []Field {
	out := make([]Field, 0, len(f.fields))
	for _, field := range f.fields {
		if field.In(mode) {
			out = append(out, field)
		}
	}
	return out
}

// Field looks a field up by name.
func (f *Form) Field(name string) (Field, bool) {
	for _, field := range f.fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// checkRules dry-runs a tag string; validator panics on unknown or malformed
// tags.
func checkRules(validate *validator.Validate, rules string) (err error) {
	if strings.TrimSpace(rules) == "" {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid rules %q: %v", rules, r)
		}
	}()
	_ = validate.Var("", rules)
	return nil
}

func containsMode(modes []Mode, mode Mode) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}
