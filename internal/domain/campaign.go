package domain

import (
	"strconv"
	"time"
)

type CampaignMetrics struct {
	Sent      int `json:"sent"`
	Opened    int `json:"opened"`
	Clicked   int `json:"clicked"`
	Converted int `json:"converted"`
}

type Campaign struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Status    string          `json:"status"`
	Type      string          `json:"type"`
	Audience  string          `json:"audience,omitempty"`
	StartDate *Date           `json:"startDate,omitempty"`
	EndDate   *Date           `json:"endDate,omitempty"`
	Budget    float64         `json:"budget"`
	Spent     float64         `json:"spent"`
	Metrics   CampaignMetrics `json:"metrics"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
}

const (
	CampaignActive    = "active"
	CampaignScheduled = "scheduled"
	CampaignCompleted = "completed"

	CampaignEmail  = "email"
	CampaignSocial = "social"
)

var CampaignSchema = register(Schema{
	Collection: CollectionCampaigns,
	Resource:   "campaign",
	Fields: withBase(
		Field{Name: "name", Column: "name", Required: true},
		Field{Name: "status", Column: "status"},
		Field{Name: "type", Column: "type", Required: true},
		Field{Name: "audience", Column: "audience"},
		Field{Name: "startDate", Column: "start_date"},
		Field{Name: "endDate", Column: "end_date"},
		Field{Name: "budget", Column: "budget"},
		Field{Name: "spent", Column: "spent"},
		Field{Name: "metrics", Column: "metrics"},
	),
	Search:    []string{"name", "audience"},
	Filters:   []string{"status", "type"},
	CSVHeader: []string{"Name", "Status", "Type", "Audience", "Start Date", "End Date", "Budget", "Spent"},
	CSVFields: []string{"name", "status", "type", "audience", "startDate", "endDate", "budget", "spent"},
})

func (c Campaign) RecordID() string { return c.ID }
func (c Campaign) CreatedTime() time.Time { return c.CreatedAt }
func (c Campaign) Label() string { return c.Name }
func (c Campaign) Amount() float64 { return c.Budget }
func (c Campaign) SortTime() time.Time { return c.StartDate.TimeOf() }
func (c Campaign) TagSet() []string { return nil }

func (c Campaign) Attr(field string) string {
	switch field {
	case "id":
		return c.ID
	case "name":
		return c.Name
	case "status":
		return c.Status
	case "type":
		return c.Type
	case "audience":
		return c.Audience
	case "startDate":
		return formatDate(c.StartDate)
	case "endDate":
		return formatDate(c.EndDate)
	case "budget":
		return strconv.FormatFloat(c.Budget, 'f', 2, 64)
	case "spent":
		return strconv.FormatFloat(c.Spent, 'f', 2, 64)
	case "createdAt":
		return c.CreatedAt.Format(time.RFC3339)
	}
	return ""
}

func (c *Campaign) ApplyDefaults() {
	if c.Status == "" {
		c.Status = CampaignScheduled
	}
}

func (c Campaign) Validate() error {
	switch c.Status {
	case CampaignActive, CampaignScheduled, CampaignCompleted:
	default:
		return ValidationError{Field: "status", Message: "must be active, scheduled or completed"}
	}
	if c.Type != CampaignEmail && c.Type != CampaignSocial {
		return ValidationError{Field: "type", Message: "must be email or social"}
	}
	return nil
}
