package domain

import "time"

const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// ChangeEvent is published on every mutation of an entity collection.
type ChangeEvent struct {
	Collection string    `json:"collection"`
	Type       string    `json:"type"`
	ID         string    `json:"id"`
	Record     any       `json:"record,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	Time       time.Time `json:"time"`
}

// ChannelFor returns the pub/sub channel of a collection.
func ChannelFor(collection string) string {
	return "crm:" + collection
}
