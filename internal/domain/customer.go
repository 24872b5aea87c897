package domain

import (
	"strconv"
	"time"
)

type Customer struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Status      string     `json:"status"`
	Spent       float64    `json:"spent"`
	LastOrder   *Date      `json:"lastOrder,omitempty"`
	Avatar      string     `json:"avatar,omitempty"`
	Company     string     `json:"company,omitempty"`
	CompanySize string     `json:"companySize,omitempty"`
	Industry    string     `json:"industry,omitempty"`
	Website     string     `json:"website,omitempty"`
	Timezone    string     `json:"timezone,omitempty"`
	Tags        []string   `json:"tags"`
	BillingRef  string     `json:"billingRef,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

const (
	CustomerActive   = "active"
	CustomerInactive = "inactive"
)

var CustomerSchema = register(Schema{
	Collection: CollectionCustomers,
	Resource:   "customer",
	Fields: withBase(
		Field{Name: "name", Column: "name", Required: true},
		Field{Name: "email", Column: "email", Required: true},
		Field{Name: "status", Column: "status"},
		Field{Name: "spent", Column: "spent"},
		Field{Name: "lastOrder", Column: "last_order"},
		Field{Name: "avatar", Column: "avatar"},
		Field{Name: "company", Column: "company"},
		Field{Name: "companySize", Column: "company_size"},
		Field{Name: "industry", Column: "industry"},
		Field{Name: "website", Column: "website"},
		Field{Name: "timezone", Column: "timezone"},
		Field{Name: "tags", Column: "tags"},
		Field{Name: "billingRef", Column: "billing_ref"},
	),
	Search:    []string{"name", "email", "company"},
	Filters:   []string{"status", "timezone", "companySize", "industry"},
	CSVHeader: []string{"Name", "Email", "Status", "Company", "Industry", "Total Spent", "Last Order", "Created"},
	CSVFields: []string{"name", "email", "status", "company", "industry", "spent", "lastOrder", "createdAt"},
})

func (c Customer) RecordID() string { return c.ID }
func (c Customer) CreatedTime() time.Time { return c.CreatedAt }
func (c Customer) Label() string { return c.Name }
func (c Customer) Amount() float64 { return c.Spent }
func (c Customer) SortTime() time.Time { return c.LastOrder.TimeOf() }
func (c Customer) TagSet() []string { return c.Tags }

func (c Customer) Attr(field string) string {
	switch field {
	case "id":
		return c.ID
	case "name":
		return c.Name
	case "email":
		return c.Email
	case "status":
		return c.Status
	case "spent":
		return strconv.FormatFloat(c.Spent, 'f', 2, 64)
	case "lastOrder":
		return formatDate(c.LastOrder)
	case "company":
		return c.Company
	case "companySize":
		return c.CompanySize
	case "industry":
		return c.Industry
	case "website":
		return c.Website
	case "timezone":
		return c.Timezone
	case "tags":
		return joinTags(c.Tags)
	case "billingRef":
		return c.BillingRef
	case "createdAt":
		return c.CreatedAt.Format(time.RFC3339)
	}
	return ""
}

func (c *Customer) ApplyDefaults() {
	if c.Status == "" {
		c.Status = CustomerActive
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
}

func (c Customer) Validate() error {
	if c.Status != CustomerActive && c.Status != CustomerInactive {
		return ValidationError{Field: "status", Message: "must be active or inactive"}
	}
	return nil
}
