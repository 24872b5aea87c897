package usecase

import (
	"github.com/robtrove/TroveCRM/internal/domain"
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Submission is the output of a valid form, ready for the controller.
// In edit mode Draft holds only the fields changed since the form was opened.
type Submission struct {
	Mode  Mode
	ID    string
	Draft domain.Fields
}

// Form edits one record locally. It never calls a store.
type Form struct {
	schema domain.Schema
	mode   Mode
	id     string
	values domain.Fields
	dirty  map[string]bool
}

// NewForm opens a form in edit mode when record carries an id, otherwise in
// create mode.
func NewForm(schema domain.Schema, record domain.Fields) *Form {
	f := &Form{
		schema: schema,
		mode:   ModeCreate,
		values: domain.Fields{},
		dirty:  map[string]bool{},
	}
	if id, ok := record["id"].(string); ok && id != "" {
		f.mode = ModeEdit
		f.id = id
	}
	for k, v := range record {
		field, ok := schema.Lookup(k)
		if !ok || field.Immutable {
			continue
		}
		f.values[k] = v
	}
	return f
}

func (f *Form) Mode() Mode {
	return f.mode
}

func (f *Form) ID() string {
	return f.id
}

func (f *Form) Get(field string) (any, bool) {
	v, ok := f.values[field]
	return v, ok
}

func (f *Form) Set(field string, value any) error {
	def, ok := f.schema.Lookup(field)
	if !ok {
		return domain.ValidationError{Field: field, Message: "unknown field"}
	}
	if def.Immutable {
		return domain.ValidationError{Field: field, Message: "immutable"}
	}
	f.values[field] = value
	f.dirty[field] = true
	return nil
}

func (f *Form) Submit() (Submission, error) {
	if err := f.schema.CheckRequired(f.values); err != nil {
		return Submission{}, err
	}
	if f.mode == ModeCreate {
		return Submission{Mode: ModeCreate, Draft: f.values.Clone()}, nil
	}
	patch := domain.Fields{}
	for k := range f.dirty {
		patch[k] = f.values[k]
	}
	return Submission{Mode: ModeEdit, ID: f.id, Draft: patch}, nil
}
