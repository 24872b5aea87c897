package domain

import (
	"strconv"
	"time"
)

type Deal struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Company    string     `json:"company"`
	Value      float64    `json:"value"`
	Stage      string     `json:"stage"`
	Progress   int        `json:"progress"`
	DueDate    *Date      `json:"dueDate,omitempty"`
	AssignedTo *Assignee  `json:"assignedTo,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

var DealSchema = register(Schema{
	Collection: CollectionDeals,
	Resource:   "deal",
	Fields: withBase(
		Field{Name: "title", Column: "title", Required: true},
		Field{Name: "company", Column: "company", Required: true},
		Field{Name: "value", Column: "value", Required: true},
		Field{Name: "stage", Column: "stage"},
		Field{Name: "progress", Column: "progress"},
		Field{Name: "dueDate", Column: "due_date"},
		Field{Name: "assignedTo", Column: "assigned_to"},
	),
	Search:    []string{"title", "company"},
	Filters:   []string{"stage"},
	CSVHeader: []string{"Title", "Company", "Value", "Stage", "Progress", "Due Date", "Assigned To"},
	CSVFields: []string{"title", "company", "value", "stage", "progress", "dueDate", "assignedTo"},
})

func (d Deal) RecordID() string { return d.ID }
func (d Deal) CreatedTime() time.Time { return d.CreatedAt }
func (d Deal) Label() string { return d.Title }
func (d Deal) Amount() float64 { return d.Value }
func (d Deal) SortTime() time.Time { return d.DueDate.TimeOf() }
func (d Deal) TagSet() []string { return nil }

func (d Deal) Attr(field string) string {
	switch field {
	case "id":
		return d.ID
	case "title":
		return d.Title
	case "company":
		return d.Company
	case "value":
		return strconv.FormatFloat(d.Value, 'f', 2, 64)
	case "stage":
		return d.Stage
	case "progress":
		return strconv.Itoa(d.Progress)
	case "dueDate":
		return formatDate(d.DueDate)
	case "assignedTo":
		if d.AssignedTo == nil {
			return ""
		}
		return d.AssignedTo.Name
	case "createdAt":
		return d.CreatedAt.Format(time.RFC3339)
	}
	return ""
}

func (d *Deal) ApplyDefaults() {
	if d.Stage == "" {
		d.Stage = StageQualified
	}
}

func (d Deal) Validate() error {
	if _, ok := LookupStage(d.Stage); !ok {
		return ValidationError{Field: "stage", Message: "unknown stage " + d.Stage}
	}
	if d.Progress < 0 || d.Progress > 100 {
		return ValidationError{Field: "progress", Message: "must be between 0 and 100"}
	}
	return nil
}
