package models

import (
	"time"

	"gorm.io/datatypes"
)

type Assignee struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Role   string `json:"role,omitempty"`
}

type Customer struct {
	ID          string                      `gorm:"primaryKey;type:text"`
	Name        string                      `gorm:"type:text;not null"`
	Email       string                      `gorm:"type:text;not null;index"`
	Status      string                      `gorm:"type:text;not null;index"`
	Spent       float64                     `gorm:"not null"`
	LastOrder   *time.Time
	Avatar      string                      `gorm:"type:text"`
	Company     string                      `gorm:"type:text"`
	CompanySize string                      `gorm:"type:text"`
	Industry    string                      `gorm:"type:text"`
	Website     string                      `gorm:"type:text"`
	Timezone    string                      `gorm:"type:text"`
	Tags        datatypes.JSONSlice[string]
	BillingRef  string                      `gorm:"type:text"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime:false;index"`
	UpdatedAt   *time.Time                  `gorm:"autoUpdateTime:false"`
}

func (Customer) TableName() string { return "customers" }

type CampaignMetrics struct {
	Sent      int `json:"sent"`
	Opened    int `json:"opened"`
	Clicked   int `json:"clicked"`
	Converted int `json:"converted"`
}

type Campaign struct {
	ID        string                              `gorm:"primaryKey;type:text"`
	Name      string                              `gorm:"type:text;not null"`
	Status    string                              `gorm:"type:text;not null;index"`
	Type      string                              `gorm:"type:text;not null"`
	Audience  string                              `gorm:"type:text"`
	StartDate *time.Time
	EndDate   *time.Time
	Budget    float64                             `gorm:"not null"`
	Spent     float64                             `gorm:"not null"`
	Metrics   datatypes.JSONType[CampaignMetrics]
	CreatedAt time.Time                           `gorm:"autoCreateTime:false;index"`
	UpdatedAt *time.Time                          `gorm:"autoUpdateTime:false"`
}

func (Campaign) TableName() string { return "campaigns" }

type Deal struct {
	ID         string                        `gorm:"primaryKey;type:text"`
	Title      string                        `gorm:"type:text;not null"`
	Company    string                        `gorm:"type:text;not null"`
	Value      float64                       `gorm:"not null"`
	Stage      string                        `gorm:"type:text;not null;index"`
	Progress   int                           `gorm:"not null"`
	DueDate    *time.Time
	AssignedTo datatypes.JSONType[*Assignee]
	CreatedAt  time.Time                     `gorm:"autoCreateTime:false;index"`
	UpdatedAt  *time.Time                    `gorm:"autoUpdateTime:false"`
}

func (Deal) TableName() string { return "deals" }

type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Ticket struct {
	ID          string                        `gorm:"primaryKey;type:text"`
	Title       string                        `gorm:"type:text;not null"`
	Description string                        `gorm:"type:text;not null"`
	Status      string                        `gorm:"type:text;not null;index"`
	Priority    string                        `gorm:"type:text;not null"`
	Category    string                        `gorm:"type:text;not null"`
	CustomerID  string                        `gorm:"type:text;index"`
	AssignedTo  datatypes.JSONType[*Assignee]
	Comments    datatypes.JSONSlice[Comment]
	CreatedAt   time.Time                     `gorm:"autoCreateTime:false;index"`
	UpdatedAt   *time.Time                    `gorm:"autoUpdateTime:false"`
}

func (Ticket) TableName() string { return "tickets" }

type Article struct {
	ID        string                      `gorm:"primaryKey;type:text"`
	Title     string                      `gorm:"type:text;not null"`
	Content   string                      `gorm:"type:text;not null"`
	Category  string                      `gorm:"type:text;not null;index"`
	Views     int                         `gorm:"not null"`
	Tags      datatypes.JSONSlice[string]
	CreatedAt time.Time                   `gorm:"autoCreateTime:false;index"`
	UpdatedAt *time.Time                  `gorm:"autoUpdateTime:false"`
}

func (Article) TableName() string { return "articles" }
