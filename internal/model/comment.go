package model

import "time"

// Comment is a row in the `comments` table.  Comments are soft deleted:
// Deleted rows stay readable by id but are hidden from event listings.
// ParentID links a reply to the comment it answers; both always share
// the same EventID.
type Comment struct {
	ID        uint64    `json:"id"`
	Content   string    `json:"content"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	AuthorID  uint64    `json:"authorId"`
	EventID   uint64    `json:"eventId"`
	ParentID  *uint64   `json:"parentId,omitempty"`
}
