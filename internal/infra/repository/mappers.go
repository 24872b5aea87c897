package repository

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/infra/database/models"
)

func toTime(d *domain.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time.UTC()
	return &t
}

func toDate(t *time.Time) *domain.Date {
	if t == nil {
		return nil
	}
	return domain.NewDate(t.UTC())
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func toAssignee(a *domain.Assignee) datatypes.JSONType[*models.Assignee] {
	if a == nil {
		return datatypes.NewJSONType[*models.Assignee](nil)
	}
	return datatypes.NewJSONType(&models.Assignee{ID: a.ID, Name: a.Name, Avatar: a.Avatar, Role: a.Role})
}

func fromAssignee(j datatypes.JSONType[*models.Assignee]) *domain.Assignee {
	a := j.Data()
	if a == nil {
		return nil
	}
	return &domain.Assignee{ID: a.ID, Name: a.Name, Avatar: a.Avatar, Role: a.Role}
}

var CustomerMapper = Mapper[domain.Customer, models.Customer]{
	ToModel: func(c domain.Customer) models.Customer {
		return models.Customer{
			ID:          c.ID,
			Name:        c.Name,
			Email:       c.Email,
			Status:      c.Status,
			Spent:       c.Spent,
			LastOrder:   toTime(c.LastOrder),
			Avatar:      c.Avatar,
			Company:     c.Company,
			CompanySize: c.CompanySize,
			Industry:    c.Industry,
			Website:     c.Website,
			Timezone:    c.Timezone,
			Tags:        datatypes.NewJSONSlice(orEmpty(c.Tags)),
			BillingRef:  c.BillingRef,
			CreatedAt:   c.CreatedAt.UTC(),
			UpdatedAt:   utcPtr(c.UpdatedAt),
		}
	},
	FromModel: func(m models.Customer) domain.Customer {
		return domain.Customer{
			ID:          m.ID,
			Name:        m.Name,
			Email:       m.Email,
			Status:      m.Status,
			Spent:       m.Spent,
			LastOrder:   toDate(m.LastOrder),
			Avatar:      m.Avatar,
			Company:     m.Company,
			CompanySize: m.CompanySize,
			Industry:    m.Industry,
			Website:     m.Website,
			Timezone:    m.Timezone,
			Tags:        orEmpty([]string(m.Tags)),
			BillingRef:  m.BillingRef,
			CreatedAt:   m.CreatedAt.UTC(),
			UpdatedAt:   utcPtr(m.UpdatedAt),
		}
	},
}

var CampaignMapper = Mapper[domain.Campaign, models.Campaign]{
	ToModel: func(c domain.Campaign) models.Campaign {
		return models.Campaign{
			ID:        c.ID,
			Name:      c.Name,
			Status:    c.Status,
			Type:      c.Type,
			Audience:  c.Audience,
			StartDate: toTime(c.StartDate),
			EndDate:   toTime(c.EndDate),
			Budget:    c.Budget,
			Spent:     c.Spent,
			Metrics: datatypes.NewJSONType(models.CampaignMetrics{
				Sent:      c.Metrics.Sent,
				Opened:    c.Metrics.Opened,
				Clicked:   c.Metrics.Clicked,
				Converted: c.Metrics.Converted,
			}),
			CreatedAt: c.CreatedAt.UTC(),
			UpdatedAt: utcPtr(c.UpdatedAt),
		}
	},
	FromModel: func(m models.Campaign) domain.Campaign {
		metrics := m.Metrics.Data()
		return domain.Campaign{
			ID:        m.ID,
			Name:      m.Name,
			Status:    m.Status,
			Type:      m.Type,
			Audience:  m.Audience,
			StartDate: toDate(m.StartDate),
			EndDate:   toDate(m.EndDate),
			Budget:    m.Budget,
			Spent:     m.Spent,
			Metrics: domain.CampaignMetrics{
				Sent:      metrics.Sent,
				Opened:    metrics.Opened,
				Clicked:   metrics.Clicked,
				Converted: metrics.Converted,
			},
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: utcPtr(m.UpdatedAt),
		}
	},
}

var DealMapper = Mapper[domain.Deal, models.Deal]{
	ToModel: func(d domain.Deal) models.Deal {
		return models.Deal{
			ID:         d.ID,
			Title:      d.Title,
			Company:    d.Company,
			Value:      d.Value,
			Stage:      d.Stage,
			Progress:   d.Progress,
			DueDate:    toTime(d.DueDate),
			AssignedTo: toAssignee(d.AssignedTo),
			CreatedAt:  d.CreatedAt.UTC(),
			UpdatedAt:  utcPtr(d.UpdatedAt),
		}
	},
	FromModel: func(m models.Deal) domain.Deal {
		return domain.Deal{
			ID:         m.ID,
			Title:      m.Title,
			Company:    m.Company,
			Value:      m.Value,
			Stage:      m.Stage,
			Progress:   m.Progress,
			DueDate:    toDate(m.DueDate),
			AssignedTo: fromAssignee(m.AssignedTo),
			CreatedAt:  m.CreatedAt.UTC(),
			UpdatedAt:  utcPtr(m.UpdatedAt),
		}
	},
}

var TicketMapper = Mapper[domain.Ticket, models.Ticket]{
	ToModel: func(t domain.Ticket) models.Ticket {
		comments := make([]models.Comment, len(t.Comments))
		for i, c := range t.Comments {
			comments[i] = models.Comment{ID: c.ID, Author: c.Author, Content: c.Content, CreatedAt: c.CreatedAt.UTC()}
		}
		return models.Ticket{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status,
			Priority:    t.Priority,
			Category:    t.Category,
			CustomerID:  t.CustomerID,
			AssignedTo:  toAssignee(t.AssignedTo),
			Comments:    datatypes.NewJSONSlice(comments),
			CreatedAt:   t.CreatedAt.UTC(),
			UpdatedAt:   utcPtr(t.UpdatedAt),
		}
	},
	FromModel: func(m models.Ticket) domain.Ticket {
		comments := make([]domain.Comment, len(m.Comments))
		for i, c := range m.Comments {
			comments[i] = domain.Comment{ID: c.ID, Author: c.Author, Content: c.Content, CreatedAt: c.CreatedAt.UTC()}
		}
		return domain.Ticket{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			Status:      m.Status,
			Priority:    m.Priority,
			Category:    m.Category,
			CustomerID:  m.CustomerID,
			AssignedTo:  fromAssignee(m.AssignedTo),
			Comments:    comments,
			CreatedAt:   m.CreatedAt.UTC(),
			UpdatedAt:   utcPtr(m.UpdatedAt),
		}
	},
}

var ArticleMapper = Mapper[domain.Article, models.Article]{
	ToModel: func(a domain.Article) models.Article {
		return models.Article{
			ID:        a.ID,
			Title:     a.Title,
			Content:   a.Content,
			Category:  a.Category,
			Views:     a.Views,
			Tags:      datatypes.NewJSONSlice(orEmpty(a.Tags)),
			CreatedAt: a.CreatedAt.UTC(),
			UpdatedAt: utcPtr(a.UpdatedAt),
		}
	},
	FromModel: func(m models.Article) domain.Article {
		return domain.Article{
			ID:        m.ID,
			Title:     m.Title,
			Content:   m.Content,
			Category:  m.Category,
			Views:     m.Views,
			Tags:      orEmpty([]string(m.Tags)),
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: utcPtr(m.UpdatedAt),
		}
	},
}

// Stores bundles the gorm stores of every entity collection.
type Stores struct {
	Customers *EntityStore[domain.Customer, models.Customer]
	Campaigns *EntityStore[domain.Campaign, models.Campaign]
	Deals     *EntityStore[domain.Deal, models.Deal]
	Tickets   *EntityStore[domain.Ticket, models.Ticket]
	Articles  *EntityStore[domain.Article, models.Article]
}

func NewStores(db *gorm.DB) Stores {
	return Stores{
		Customers: NewEntityStore(db, domain.CustomerSchema, CustomerMapper),
		Campaigns: NewEntityStore(db, domain.CampaignSchema, CampaignMapper),
		Deals:     NewEntityStore(db, domain.DealSchema, DealMapper),
		Tickets:   NewEntityStore(db, domain.TicketSchema, TicketMapper),
		Articles:  NewEntityStore(db, domain.ArticleSchema, ArticleMapper),
	}
}
