// Package queue defines the activity messages exchanged over RabbitMQ
// together with the publisher and the background consumer that turns
// them into an append-only activity log.
package queue

import "time"

// Activity types carried in ActivityEvent.Type.
const (
	UserSignedUp   = "user.signed_up"
	EventCreated   = "event.created"
	EventUpdated   = "event.updated"
	EventDeleted   = "event.deleted"
	CommentCreated = "comment.created"
	CommentUpdated = "comment.updated"
	CommentDeleted = "comment.deleted"
)

// ActivityEvent is published after a successful write.  It carries enough
// information for downstream consumers to log or run analytics without
// querying the primary database.
type ActivityEvent struct {
	Type       string    `json:"type"`
	ActorID    uint64    `json:"actorId"`
	ResourceID uint64    `json:"resourceId"`
	EventID    uint64    `json:"eventId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
