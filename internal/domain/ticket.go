package domain

import "time"

type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type Ticket struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	CustomerID  string     `json:"customerId,omitempty"`
	AssignedTo  *Assignee  `json:"assignedTo,omitempty"`
	Comments    []Comment  `json:"comments"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

var TicketSchema = register(Schema{
	Collection: CollectionTickets,
	Resource:   "ticket",
	Fields: withBase(
		Field{Name: "title", Column: "title", Required: true},
		Field{Name: "description", Column: "description", Required: true},
		Field{Name: "status", Column: "status"},
		Field{Name: "priority", Column: "priority"},
		Field{Name: "category", Column: "category", Required: true},
		Field{Name: "customerId", Column: "customer_id"},
		Field{Name: "assignedTo", Column: "assigned_to"},
		Field{Name: "comments", Column: "comments"},
	),
	Search:    []string{"title", "description"},
	Filters:   []string{"status", "priority", "category"},
	CSVHeader: []string{"Title", "Status", "Priority", "Category", "Assigned To", "Created"},
	CSVFields: []string{"title", "status", "priority", "category", "assignedTo", "createdAt"},
})

func (t Ticket) RecordID() string { return t.ID }
func (t Ticket) CreatedTime() time.Time { return t.CreatedAt }
func (t Ticket) Label() string { return t.Title }
func (t Ticket) Amount() float64 { return 0 }
func (t Ticket) SortTime() time.Time { return t.CreatedAt }
func (t Ticket) TagSet() []string { return nil }

func (t Ticket) Attr(field string) string {
	switch field {
	case "id":
		return t.ID
	case "title":
		return t.Title
	case "description":
		return t.Description
	case "status":
		return t.Status
	case "priority":
		return t.Priority
	case "category":
		return t.Category
	case "customerId":
		return t.CustomerID
	case "assignedTo":
		if t.AssignedTo == nil {
			return ""
		}
		return t.AssignedTo.Name
	case "createdAt":
		return t.CreatedAt.Format(time.RFC3339)
	}
	return ""
}

func (t *Ticket) ApplyDefaults() {
	if t.Status == "" {
		t.Status = TicketOpen
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Comments == nil {
		t.Comments = []Comment{}
	}
}

func (t Ticket) Validate() error {
	if !ValidTicketStatus(t.Status) {
		return ValidationError{Field: "status", Message: "unknown status " + t.Status}
	}
	if _, ok := LookupPriority(t.Priority); !ok {
		return ValidationError{Field: "priority", Message: "unknown priority " + t.Priority}
	}
	return nil
}

func ValidTicketStatus(s string) bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}

// Priority is a display entry of the ticket priority table.
type Priority struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var Priorities = []Priority{
	{ID: PriorityLow, Label: "Low", Color: "gray"},
	{ID: PriorityMedium, Label: "Medium", Color: "blue"},
	{ID: PriorityHigh, Label: "High", Color: "orange"},
	{ID: PriorityUrgent, Label: "Urgent", Color: "red"},
}

func LookupPriority(id string) (Priority, bool) {
	for _, p := range Priorities {
		if p.ID == id {
			return p, true
		}
	}
	return Priority{}, false
}
