package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Record is the common shape of every entity collection item.
type Record interface {
	RecordID() string
	CreatedTime() time.Time
	// Label is the primary display field used for alphabetical sorting.
	Label() string
	// Amount is the monetary field used for numeric sorting.
	Amount() float64
	// SortTime is the date field used for reverse-chronological sorting.
	SortTime() time.Time
	// Attr returns the text value of a UI field, or "" when the field is unknown.
	Attr(field string) string
	TagSet() []string
}

// Fields is a UI-shaped record or partial record keyed by camelCase field names.
type Fields map[string]any

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	c := make(Fields, len(f))
	for k, v := range f {
		c[k] = v
	}
	return c
}

// Decode fills dst from the fields through their JSON representation.
func (f Fields) Decode(dst any) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return ValidationError{Message: err.Error()}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return ValidationError{Field: typeErr.Field, Message: fmt.Sprintf("expected %s", typeErr.Type)}
		}
		return ValidationError{Message: err.Error()}
	}
	return nil
}

// FieldsOf converts a typed record back to its UI-shaped fields.
func FieldsOf(v any) (Fields, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var f Fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return f, nil
}

// Date is a calendar date that also accepts full RFC 3339 timestamps.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewDate(t time.Time) *Date {
	return &Date{Time: t}
}

// ParseDate accepts "2006-01-02" or RFC 3339.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	d.Time = t
	return nil
}

// TimeOf returns the zero time for a nil date.
func (d *Date) TimeOf() time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}

// Assignee is a denormalized reference to a person embedded in a record.
type Assignee struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Defaulter is implemented by records that fill server-side defaults on creation.
type Defaulter interface {
	ApplyDefaults()
}

// Validator is implemented by records with enumerated fields.
type Validator interface {
	Validate() error
}

func formatDate(d *Date) string {
	if d == nil {
		return ""
	}
	return d.Format(dateLayout)
}

func joinTags(tags []string) string {
	return strings.Join(tags, ";")
}
