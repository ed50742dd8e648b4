package model

import "time"

// Notification is an in-app message produced by the notification engine
// as a side effect of a domain mutation.  Rows are only ever mutated to
// flip IsRead; there is no deletion path.
//
// Fields:
//  ID          – primary key identifier.
//  RecipientID – user the notification is addressed to.
//  Message     – human-readable text naming the actor and the entity.
//  RelatedURL  – optional deep link to the affected resource.
//  IsRead      – whether the recipient has seen it.
//  CreatedAt   – creation timestamp.
type Notification struct {
	ID          uint64    // notifications.id
	RecipientID uint64    // notifications.recipient_id
	Message     string    // notifications.message
	RelatedURL  string    // notifications.related_url ("" when absent)
	IsRead      bool      // notifications.is_read
	CreatedAt   time.Time // notifications.created_at
}
