package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/eventos-api/internal/model"
	"github.com/iliyamo/eventos-api/internal/queue"
	"github.com/iliyamo/eventos-api/internal/repository"
	"github.com/iliyamo/eventos-api/internal/utils"
)

// CommentStore is the persistence contract of CommentService.
type CommentStore interface {
	ListByEvent(ctx context.Context, eventID uint64) ([]model.Comment, error)
	GetByID(ctx context.Context, id uint64) (*model.Comment, error)
	Create(ctx context.Context, c *model.Comment) error
	UpdateContent(ctx context.Context, id uint64, content string, at time.Time) error
	SoftDeleteThread(ctx context.Context, id uint64, at time.Time) ([]uint64, error)
}

// EventChecker verifies that a referenced event exists.
type EventChecker interface {
	ExistsByID(ctx context.Context, id uint64) (bool, error)
}

// CommentInput is the create payload.  AuthorID defaults to the actor.
type CommentInput struct {
	Content  string  `json:"content" validate:"required,max=2000"`
	AuthorID uint64  `json:"authorId"`
	EventID  uint64  `json:"eventId" validate:"required"`
	ParentID *uint64 `json:"parentId"`
}

// CommentUpdate is the update payload.
type CommentUpdate struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// CommentService implements comment threads with soft deletion.
type CommentService struct {
	comments  CommentStore
	events    EventChecker
	users     UserChecker
	publisher queue.Publisher
	now       func() time.Time
}

func NewCommentService(comments CommentStore, events EventChecker, users UserChecker, publisher queue.Publisher) *CommentService {
	return &CommentService{comments: comments, events: events, users: users, publisher: publisher, now: time.Now}
}

// ListByEvent returns the visible comments of an event ordered by id.
func (s *CommentService) ListByEvent(ctx context.Context, eventID uint64) ([]model.Comment, error) {
	comments, err := s.comments.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list comments of event %d: %w", eventID, err)
	}
	return comments, nil
}

// Get returns a comment by id, deleted or not.
func (s *CommentService) Get(ctx context.Context, id uint64) (*model.Comment, error) {
	c, err := s.comments.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment %d: %w", id, err)
	}
	return c, nil
}

func (s *CommentService) Create(ctx context.Context, in CommentInput) (*model.Comment, error) {
	if in.AuthorID == 0 {
		in.AuthorID = ActorFrom(ctx)
	}
	in.Content = utils.PlainText(in.Content)

	var extra []string
	if in.AuthorID == 0 {
		extra = append(extra, "authorId is required")
	}
	if err := validateStruct(in, extra...); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, in); err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Second)
	c := &model.Comment{
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
		AuthorID:  in.AuthorID,
		EventID:   in.EventID,
		ParentID:  in.ParentID,
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.emit(ctx, queue.CommentCreated, c)
	return c, nil
}

// Update replaces the content of a live comment.
func (s *CommentService) Update(ctx context.Context, id uint64, in CommentUpdate) (*model.Comment, error) {
	in.Content = utils.PlainText(in.Content)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	now := s.now().UTC().Truncate(time.Second)
	if err := s.comments.UpdateContent(ctx, id, in.Content, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update comment %d: %w", id, err)
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, queue.CommentUpdated, c)
	return c, nil
}

// Delete soft-deletes the comment and every reply below it.
func (s *CommentService) Delete(ctx context.Context, id uint64) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.comments.SoftDeleteThread(ctx, id, s.now().UTC().Truncate(time.Second)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete comment %d: %w", id, err)
	}

	s.emit(ctx, queue.CommentDeleted, c)
	return nil
}

func (s *CommentService) checkReferences(ctx context.Context, in CommentInput) error {
	var details []string

	ok, err := s.users.ExistsByID(ctx, in.AuthorID)
	if err != nil {
		return fmt.Errorf("check author: %w", err)
	}
	if !ok {
		details = append(details, fmt.Sprintf("authorId refers to unknown user %d", in.AuthorID))
	}

	ok, err = s.events.ExistsByID(ctx, in.EventID)
	if err != nil {
		return fmt.Errorf("check event: %w", err)
	}
	if !ok {
		details = append(details, fmt.Sprintf("eventId refers to unknown event %d", in.EventID))
	}

	if in.ParentID != nil {
		parent, err := s.comments.GetByID(ctx, *in.ParentID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			details = append(details, fmt.Sprintf("parentId refers to unknown comment %d", *in.ParentID))
		case err != nil:
			return fmt.Errorf("check parent: %w", err)
		case parent.EventID != in.EventID:
			details = append(details, "parent comment belongs to a different event")
		case parent.Deleted:
			details = append(details, "parent comment has been deleted")
		}
	}

	if len(details) > 0 {
		return newValidationError(details...)
	}
	return nil
}

func (s *CommentService) emit(ctx context.Context, typ string, c *model.Comment) {
	publish(ctx, s.publisher, queue.ActivityEvent{
		Type: typ, ActorID: ActorFrom(ctx), ResourceID: c.ID, EventID: c.EventID, OccurredAt: s.now().UTC(),
	})
}
