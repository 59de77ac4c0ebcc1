package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/eventos-api/internal/model"
	"github.com/iliyamo/eventos-api/internal/service"
)

type httpTestServer struct{ e *echo.Echo }

func (s *httpTestServer) do(method, path, body string) *httptest.ResponseRecorder {
	return do(s.e, method, path, body)
}

type stubComments struct {
	created service.CommentInput
	deleted uint64
}

func (s *stubComments) ListByEvent(_ context.Context, eventID uint64) ([]model.Comment, error) {
	return []model.Comment{{ID: 1, EventID: eventID}}, nil
}
func (s *stubComments) Get(_ context.Context, id uint64) (*model.Comment, error) {
	if id != 1 {
		return nil, service.ErrNotFound
	}
	return &model.Comment{ID: 1, Deleted: true}, nil
}
func (s *stubComments) Create(_ context.Context, in service.CommentInput) (*model.Comment, error) {
	s.created = in
	if in.Content == "" {
		return nil, &service.ValidationError{Details: []string{"content is required"}}
	}
	return &model.Comment{ID: 2, Content: in.Content, EventID: in.EventID, ParentID: in.ParentID}, nil
}
func (s *stubComments) Update(_ context.Context, id uint64, in service.CommentUpdate) (*model.Comment, error) {
	if id != 1 {
		return nil, service.ErrNotFound
	}
	return &model.Comment{ID: id, Content: in.Content}, nil
}
func (s *stubComments) Delete(_ context.Context, id uint64) error {
	if id != 1 {
		return service.ErrNotFound
	}
	s.deleted = id
	return nil
}

func newCommentServer(svc *stubComments) *httpTestServer {
	e := newTestEcho()
	h := NewCommentHandler(svc, time.Second)
	e.GET("/api/comments/event/:eventId", h.ListByEvent)
	e.GET("/api/comments/:id", h.Get)
	e.POST("/api/comments/save", h.Save)
	e.PUT("/api/comments/:id", h.Update)
	e.DELETE("/api/comments/:id", h.Delete)
	return &httpTestServer{e}
}

func TestCommentSave(t *testing.T) {
	svc := &stubComments{}
	srv := newCommentServer(svc)

	rec := srv.do(http.MethodPost, "/api/comments/save", `{"content":"hi","eventId":4,"parentId":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.created.ParentID)
	assert.Equal(t, uint64(1), *svc.created.ParentID)
	assert.Equal(t, uint64(4), svc.created.EventID)
	assert.Contains(t, rec.Body.String(), `"parentId":1`)

	rec = srv.do(http.MethodPost, "/api/comments/save", `{"content":"","eventId":4}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommentGetIncludesDeleted(t *testing.T) {
	srv := newCommentServer(&stubComments{})

	rec := srv.do(http.MethodGet, "/api/comments/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":true`)
	assert.Equal(t, http.StatusNotFound, srv.do(http.MethodGet, "/api/comments/2", "").Code)
}

func TestCommentUpdateAndDelete(t *testing.T) {
	svc := &stubComments{}
	srv := newCommentServer(svc)

	assert.Equal(t, http.StatusOK, srv.do(http.MethodPut, "/api/comments/1", `{"content":"edited"}`).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(http.MethodPut, "/api/comments/9", `{"content":"edited"}`).Code)

	rec := srv.do(http.MethodDelete, "/api/comments/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, uint64(1), svc.deleted)
	assert.Equal(t, http.StatusNotFound, srv.do(http.MethodDelete, "/api/comments/9", "").Code)
}

func TestCommentListByEvent(t *testing.T) {
	srv := newCommentServer(&stubComments{})
	rec := srv.do(http.MethodGet, "/api/comments/event/4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"eventId":4`)
}
