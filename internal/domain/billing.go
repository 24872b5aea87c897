package domain

import "time"

type Subscription struct {
	ID               string    `json:"id"`
	PlanID           string    `json:"planId"`
	PlanName         string    `json:"planName"`
	Status           string    `json:"status"`
	CurrentTermStart time.Time `json:"currentTermStart"`
	CurrentTermEnd   time.Time `json:"currentTermEnd"`
	// PlanAmount is in minor currency units.
	PlanAmount int64 `json:"planAmount"`
}

type Invoice struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Total       int64     `json:"total"`
	Status      string    `json:"status"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
}

// HostedSession is a short-lived link into the billing provider (checkout or portal).
type HostedSession struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
