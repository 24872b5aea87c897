package domain

import (
	"fmt"
	"strings"
)

// Field describes one UI field and its storage column.
type Field struct {
	Name      string
	Column    string
	Required  bool
	Immutable bool
}

// Schema is the per-entity table of UI field name to storage column.
type Schema struct {
	Collection string
	Resource   string
	Fields     []Field
	// Search lists the fields matched by free-text search.
	Search []string
	// Filters lists the fields usable for categorical equality.
	Filters []string
	// CSVHeader and CSVFields are the export columns, in order.
	CSVHeader []string
	CSVFields []string
}

var baseFields = []Field{
	{Name: "id", Column: "id", Immutable: true},
	{Name: "createdAt", Column: "created_at", Immutable: true},
	{Name: "updatedAt", Column: "updated_at", Immutable: true},
}

func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Column maps a UI field name to its storage column.
func (s Schema) Column(name string) (string, bool) {
	f, ok := s.Lookup(name)
	return f.Column, ok
}

// FieldName maps a storage column back to its UI field name.
func (s Schema) FieldName(column string) (string, bool) {
	for _, f := range s.Fields {
		if f.Column == column {
			return f.Name, true
		}
	}
	return "", false
}

// Required returns the required field names in declaration order.
func (s Schema) Required() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// IsFilter reports whether name is a categorical filter field.
func (s Schema) IsFilter(name string) bool {
	for _, f := range s.Filters {
		if f == name {
			return true
		}
	}
	return false
}

// CheckCreate rejects unknown fields and store-assigned fields in a draft.
func (s Schema) CheckCreate(draft Fields) error {
	for k := range draft {
		f, ok := s.Lookup(k)
		if !ok {
			return ValidationError{Field: k, Message: "unknown field"}
		}
		if f.Immutable && k != "createdAt" {
			return ValidationError{Field: k, Message: "assigned by the store"}
		}
	}
	return nil
}

// CheckPatch rejects unknown and immutable fields and returns the columns to write.
func (s Schema) CheckPatch(patch Fields) ([]string, error) {
	cols := make([]string, 0, len(patch)+1)
	for k := range patch {
		f, ok := s.Lookup(k)
		if !ok {
			return nil, ValidationError{Field: k, Message: "unknown field"}
		}
		if f.Immutable {
			return nil, ValidationError{Field: k, Message: "immutable"}
		}
		cols = append(cols, f.Column)
	}
	return cols, nil
}

func withBase(fields ...Field) []Field {
	out := make([]Field, 0, len(baseFields)+len(fields))
	out = append(out, baseFields...)
	return append(out, fields...)
}

var schemas = map[string]Schema{}

func register(s Schema) Schema {
	if _, dup := schemas[s.Collection]; dup {
		panic(fmt.Sprintf("duplicate schema %q", s.Collection))
	}
	schemas[s.Collection] = s
	return s
}

// SchemaFor returns the schema registered for a collection.
func SchemaFor(collection string) (Schema, bool) {
	s, ok := schemas[collection]
	return s, ok
}

// Collections lists the entity collections served by the table API.
var Collections = []string{
	CollectionCustomers,
	CollectionCampaigns,
	CollectionDeals,
	CollectionTickets,
	CollectionArticles,
}

const (
	CollectionCustomers = "customers"
	CollectionCampaigns = "campaigns"
	CollectionDeals     = "deals"
	CollectionTickets   = "tickets"
	CollectionArticles  = "articles"
)

// CheckRequired returns a ValidationError naming the first missing or blank required field.
func (s Schema) CheckRequired(values Fields) error {
	for _, name := range s.Required() {
		v, ok := values[name]
		if !ok || v == nil {
			return ValidationError{Field: name, Message: "required"}
		}
		if str, isStr := v.(string); isStr && strings.TrimSpace(str) == "" {
			return ValidationError{Field: name, Message: "required"}
		}
	}
	return nil
}
