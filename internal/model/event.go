package model

import "time"

// Event represents a listed event owned by the user that created it.
// This struct corresponds to a row in the `events` table.
//
// Fields:
//  ID           – primary key identifier.
//  Title        – short title (max 200 chars).
//  Description  – free text description.
//  StartsAt     – when the event begins.
//  EndsAt       – when the event ends (never before StartsAt).
//  LocationText – human readable location.
//  ImageURL     – optional cover image; nil when unset.
//  CreatedBy    – users.id of the owner.
//  IsActive     – inactive events are hidden from the public listing.
type Event struct {
	ID           uint64    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	StartsAt     time.Time `json:"startsAt"`
	EndsAt       time.Time `json:"endsAt"`
	LocationText string    `json:"locationText"`
	ImageURL     *string   `json:"imageUrl"`
	CreatedBy    uint64    `json:"createdBy"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// EventSummary is the reduced shape used by the paginated listing.
type EventSummary struct {
	ID           uint64    `json:"id"`
	Title        string    `json:"title"`
	StartsAt     time.Time `json:"startsAt"`
	EndsAt       time.Time `json:"endsAt"`
	LocationText string    `json:"locationText"`
	ImageURL     *string   `json:"imageUrl"`
}

// Summary returns the listing view of e.
func (e Event) Summary() EventSummary {
	return EventSummary{
		ID:           e.ID,
		Title:        e.Title,
		StartsAt:     e.StartsAt,
		EndsAt:       e.EndsAt,
		LocationText: e.LocationText,
		ImageURL:     e.ImageURL,
	}
}
