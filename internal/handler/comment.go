package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventos-api/internal/model"
	"github.com/iliyamo/eventos-api/internal/service"
)

// CommentService is what CommentHandler needs from the service layer.
type CommentService interface {
	ListByEvent(ctx context.Context, eventID uint64) ([]model.Comment, error)
	Get(ctx context.Context, id uint64) (*model.Comment, error)
	Create(ctx context.Context, in service.CommentInput) (*model.Comment, error)
	Update(ctx context.Context, id uint64, in service.CommentUpdate) (*model.Comment, error)
	Delete(ctx context.Context, id uint64) error
}

// CommentHandler serves /api/comments.
type CommentHandler struct {
	svc     CommentService
	timeout time.Duration
}

func NewCommentHandler(svc CommentService, timeout time.Duration) *CommentHandler {
	return &CommentHandler{svc: svc, timeout: timeout}
}

func (h *CommentHandler) ListByEvent(c echo.Context) error {
	eventID, err := pathID(c, "eventId")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c, h.timeout)
	defer cancel()

	comments, err := h.svc.ListByEvent(ctx, eventID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c, h.timeout)
	defer cancel()

	comment, err := h.svc.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comment)
}

// Save serves POST /api/comments/save.
func (h *CommentHandler) Save(c echo.Context) error {
	var in service.CommentInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c, h.timeout)
	defer cancel()

	comment, err := h.svc.Create(ctx, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in service.CommentUpdate
	if err := c.Bind(&in); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c, h.timeout)
	defer cancel()

	comment, err := h.svc.Update(ctx, id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comment)
}

// Delete soft-deletes and answers 200 with an empty body.
func (h *CommentHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c, h.timeout)
	defer cancel()

	if err := h.svc.Delete(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}
