package models

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID           string    `gorm:"primaryKey;type:text"`
	Username     string    `gorm:"type:text;not null;uniqueIndex"`
	Name         string    `gorm:"type:text"`
	Email        string    `gorm:"type:text"`
	Role         string    `gorm:"type:text;not null"`
	PasswordHash string    `gorm:"type:text;not null"`
	CreatedAt    time.Time
}

func (User) TableName() string { return "users" }

type Setting struct {
	Key       string         `gorm:"primaryKey;type:text"`
	Value     datatypes.JSON
	UpdatedAt time.Time
}

func (Setting) TableName() string { return "settings" }
