package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventos-api/internal/model"
	"github.com/iliyamo/eventos-api/internal/service"
)

// EventService is what EventHandler needs from the service layer.
type EventService interface {
	List(ctx context.Context, page, size int, query string) ([]model.EventSummary, error)
	Get(ctx context.Context, id uint64) (*model.Event, error)
	Create(ctx context.Context, in service.EventInput) (*model.Event, error)
	Update(ctx context.Context, in service.EventInput) (*model.Event, error)
	Delete(ctx context.Context, id uint64) error
	ListByUser(ctx context.Context, userID uint64) ([]model.Event, error)
}

// EventHandler serves /api/events.
type EventHandler struct {
	svc     EventService
	timeout time.Duration
}

func NewEventHandler(svc EventService, timeout time.Duration) *EventHandler {
	return &EventHandler{svc: svc, timeout: timeout}
}

// eventReq accepts RFC 3339 timestamps as well as zone-less local
// date-times ("2025-07-01T18:00:00"), which are read as UTC.
type eventReq struct {
	ID           uint64  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	StartsAt     string  `json:"startsAt"`
	EndsAt       string  `json:"endsAt"`
	LocationText string  `json:"locationText"`
	ImageURL     *string `json:"imageUrl"`
	CreatedBy    uint64  `json:"createdBy"`
	IsActive     *bool   `json:"isActive"`
}

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05"}

func parseTimestamp(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &service.ValidationError{Details: []string{field + " must be an ISO-8601 date-time"}}
}

func (r eventReq) toInput() (service.EventInput, error) {
	starts, err := parseTimestamp("startsAt", r.StartsAt)
	if err != nil {
		return service.EventInput{}, err
	}
	ends, err := parseTimestamp("endsAt", r.EndsAt)
	if err != nil {
		return service.EventInput{}, err
	}
	return service.EventInput{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		StartsAt:     starts,
		EndsAt:       ends,
		LocationText: r.LocationText,
		ImageURL:     r.ImageURL,
		CreatedBy:    r.CreatedBy,
		IsActive:     r.IsActive,
	}, nil
}

// List serves GET /api/events?page&size&query.
func (h *EventHandler) List(c echo.Context) error {
	page, err := queryInt(c, "page", 0)
	if err != nil {
		return err
	}
	size, err := queryInt(c, "size", service.DefaultPageSize)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c, h.timeout)
	defer cancel()

	events, err := h.svc.List(ctx, page, size, c.QueryParam("query"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}

func (h *EventHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c, h.timeout)
	defer cancel()

	e, err := h.svc.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

// Save serves POST /api/events/save.
func (h *EventHandler) Save(c echo.Context) error {
	in, err := bindEvent(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c, h.timeout)
	defer cancel()

	e, err := h.svc.Create(ctx, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

// Update serves PUT /api/events/update; the id travels in the body.
func (h *EventHandler) Update(c echo.Context) error {
	in, err := bindEvent(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c, h.timeout)
	defer cancel()

	e, err := h.svc.Update(ctx, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (h *EventHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c, h.timeout)
	defer cancel()

	if err := h.svc.Delete(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListByUser serves GET /api/events/user/:userId.
func (h *EventHandler) ListByUser(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c, h.timeout)
	defer cancel()

	events, err := h.svc.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}

func bindEvent(c echo.Context) (service.EventInput, error) {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return service.EventInput{}, err
	}
	return req.toInput()
}
