package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/eventos-api/internal/model"
	"github.com/iliyamo/eventos-api/internal/queue"
	"github.com/iliyamo/eventos-api/internal/repository"
	"github.com/iliyamo/eventos-api/internal/utils"
)

// Listing bounds.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// EventStore is the persistence contract of EventService.
type EventStore interface {
	List(ctx context.Context, f repository.EventFilter) ([]model.Event, error)
	ListByCreator(ctx context.Context, userID uint64) ([]model.Event, error)
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
	Create(ctx context.Context, e *model.Event) error
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id uint64) error
}

// UserChecker verifies that a referenced user exists.
type UserChecker interface {
	ExistsByID(ctx context.Context, id uint64) (bool, error)
}

// EventInput is the create/update payload.  ID is ignored on create and
// required on update.  A nil IsActive keeps the current value (true on
// create).
type EventInput struct {
	ID           uint64    `json:"id"`
	Title        string    `json:"title" validate:"required,max=200"`
	Description  string    `json:"description" validate:"max=65535,maxbytes=65535"`
	StartsAt     time.Time `json:"startsAt" validate:"required"`
	EndsAt       time.Time `json:"endsAt" validate:"required"`
	LocationText string    `json:"locationText" validate:"required,max=255"`
	ImageURL     *string   `json:"imageUrl" validate:"omitempty,max=255,url"`
	CreatedBy    uint64    `json:"createdBy"`
	IsActive     *bool     `json:"isActive"`
}

// EventService implements listing and CRUD for events.
type EventService struct {
	events    EventStore
	users     UserChecker
	publisher queue.Publisher
	now       func() time.Time
}

func NewEventService(events EventStore, users UserChecker, publisher queue.Publisher) *EventService {
	return &EventService{events: events, users: users, publisher: publisher, now: time.Now}
}

// List returns one page of active events ordered by id.  page is 0-based
// and size is clamped to [1, MaxPageSize] with 0 meaning DefaultPageSize.
func (s *EventService) List(ctx context.Context, page, size int, query string) ([]model.EventSummary, error) {
	if page < 0 {
		page = 0
	}
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	events, err := s.events.List(ctx, repository.EventFilter{Query: query, Limit: size, Offset: page * size})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]model.EventSummary, 0, len(events))
	for _, e := range events {
		out = append(out, e.Summary())
	}
	return out, nil
}

func (s *EventService) Get(ctx context.Context, id uint64) (*model.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	return e, nil
}

func (s *EventService) ListByUser(ctx context.Context, userID uint64) ([]model.Event, error) {
	events, err := s.events.ListByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list events of user %d: %w", userID, err)
	}
	return events, nil
}

// Create validates in and stores a new event.  CreatedBy defaults to the
// actor on ctx.
func (s *EventService) Create(ctx context.Context, in EventInput) (*model.Event, error) {
	if in.CreatedBy == 0 {
		in.CreatedBy = ActorFrom(ctx)
	}
	in = normalizeEvent(in)
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Second)
	e := &model.Event{
		Title:        in.Title,
		Description:  in.Description,
		StartsAt:     in.StartsAt,
		EndsAt:       in.EndsAt,
		LocationText: in.LocationText,
		ImageURL:     in.ImageURL,
		CreatedBy:    in.CreatedBy,
		IsActive:     in.IsActive == nil || *in.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.emit(ctx, queue.EventCreated, e.ID)
	return e, nil
}

// Update replaces every mutable field of the event identified by in.ID.
func (s *EventService) Update(ctx context.Context, in EventInput) (*model.Event, error) {
	if in.ID == 0 {
		return nil, newValidationError("id is required")
	}
	current, err := s.Get(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if in.CreatedBy == 0 {
		in.CreatedBy = current.CreatedBy
	}
	in = normalizeEvent(in)
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	e := &model.Event{
		ID:           current.ID,
		Title:        in.Title,
		Description:  in.Description,
		StartsAt:     in.StartsAt,
		EndsAt:       in.EndsAt,
		LocationText: in.LocationText,
		ImageURL:     in.ImageURL,
		CreatedBy:    in.CreatedBy,
		IsActive:     current.IsActive,
		CreatedAt:    current.CreatedAt,
		UpdatedAt:    s.now().UTC().Truncate(time.Second),
	}
	if in.IsActive != nil {
		e.IsActive = *in.IsActive
	}
	if err := s.events.Update(ctx, e); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update event %d: %w", e.ID, err)
	}

	s.emit(ctx, queue.EventUpdated, e.ID)
	return e, nil
}

// Delete removes the event and its comments.
func (s *EventService) Delete(ctx context.Context, id uint64) error {
	if err := s.events.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	s.emit(ctx, queue.EventDeleted, id)
	return nil
}

func (s *EventService) validate(ctx context.Context, in EventInput) error {
	var extra []string
	if !in.StartsAt.IsZero() && !in.EndsAt.IsZero() && in.EndsAt.Before(in.StartsAt) {
		extra = append(extra, "endsAt must not be before startsAt")
	}
	if in.CreatedBy == 0 {
		extra = append(extra, "createdBy is required")
	}
	if err := validateStruct(in, extra...); err != nil {
		return err
	}

	ok, err := s.users.ExistsByID(ctx, in.CreatedBy)
	if err != nil {
		return fmt.Errorf("check creator: %w", err)
	}
	if !ok {
		return newValidationError(fmt.Sprintf("createdBy refers to unknown user %d", in.CreatedBy))
	}
	return nil
}

func (s *EventService) emit(ctx context.Context, typ string, id uint64) {
	publish(ctx, s.publisher, queue.ActivityEvent{
		Type: typ, ActorID: ActorFrom(ctx), ResourceID: id, EventID: id, OccurredAt: s.now().UTC(),
	})
}

// normalizeEvent strips markup from the plain fields, sanitises the
// description and stores times at second precision in UTC.
func normalizeEvent(in EventInput) EventInput {
	in.Title = utils.PlainText(in.Title)
	in.LocationText = utils.PlainText(in.LocationText)
	in.Description = utils.RichText(in.Description)
	if in.ImageURL != nil {
		u := strings.TrimSpace(*in.ImageURL)
		if u == "" {
			in.ImageURL = nil
		} else {
			in.ImageURL = &u
		}
	}
	if !in.StartsAt.IsZero() {
		in.StartsAt = in.StartsAt.UTC().Truncate(time.Second)
	}
	if !in.EndsAt.IsZero() {
		in.EndsAt = in.EndsAt.UTC().Truncate(time.Second)
	}
	return in
}
