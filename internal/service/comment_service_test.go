package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/eventos-api/internal/model"
	"github.com/iliyamo/eventos-api/internal/queue"
)

type commentFixture struct {
	svc      *CommentService
	comments *memComments
	events   *memEvents
	pub      *recordingPublisher
	author   uint64
	eventID  uint64
	otherID  uint64
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()
	users := newMemUsers()
	author := users.add("author")
	comments := newMemComments()
	events := newMemEvents(comments)
	for i := 0; i < 2; i++ {
		require.NoError(t, events.Create(context.Background(), &model.Event{Title: "e", CreatedBy: author, IsActive: true}))
	}
	pub := &recordingPublisher{}
	svc := NewCommentService(comments, events, users, pub)
	svc.now = fixedClock(clock)
	return &commentFixture{svc: svc, comments: comments, events: events, pub: pub, author: author, eventID: 1, otherID: 2}
}

func TestCommentCreate(t *testing.T) {
	f := newCommentFixture(t)
	ctx := WithActor(context.Background(), f.author)

	c, err := f.svc.Create(ctx, CommentInput{Content: "  <b>great</b> show ", EventID: f.eventID})
	require.NoError(t, err)
	assert.Equal(t, "great show", c.Content)
	assert.Equal(t, f.author, c.AuthorID)
	assert.Equal(t, clock, c.CreatedAt)
	assert.False(t, c.Deleted)

	parent := c.ID
	reply, err := f.svc.Create(ctx, CommentInput{Content: "agreed", EventID: f.eventID, ParentID: &parent})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, parent, *reply.ParentID)

	assert.Equal(t, []string{queue.CommentCreated, queue.CommentCreated}, f.pub.types())
	assert.Equal(t, f.eventID, f.pub.events[1].EventID)
}

func TestCommentCreateValidation(t *testing.T) {
	f := newCommentFixture(t)
	ctx := WithActor(context.Background(), f.author)
	root, err := f.svc.Create(ctx, CommentInput{Content: "root", EventID: f.eventID})
	require.NoError(t, err)
	rootID := root.ID
	missing := uint64(99)

	cases := []struct {
		name   string
		ctx    context.Context
		in     CommentInput
		detail string
	}{
		{"empty after sanitising", ctx, CommentInput{Content: "<script>x</script>", EventID: f.eventID}, "content is required"},
		{"too long", ctx, CommentInput{Content: strings.Repeat("a", 2001), EventID: f.eventID}, "content must be at most 2000 characters"},
		{"unknown event", ctx, CommentInput{Content: "hi", EventID: 42}, "eventId refers to unknown event 42"},
		{"unknown author", context.Background(), CommentInput{Content: "hi", EventID: f.eventID, AuthorID: 77}, "authorId refers to unknown user 77"},
		{"anonymous", context.Background(), CommentInput{Content: "hi", EventID: f.eventID}, "authorId is required"},
		{"unknown parent", ctx, CommentInput{Content: "hi", EventID: f.eventID, ParentID: &missing}, "parentId refers to unknown comment 99"},
		{"parent on other event", ctx, CommentInput{Content: "hi", EventID: f.otherID, ParentID: &rootID}, "parent comment belongs to a different event"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(tc.ctx, tc.in)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Contains(t, ve.Details, tc.detail)
		})
	}
	assert.Len(t, f.comments.rows, 1)
}

func TestCommentUpdate(t *testing.T) {
	f := newCommentFixture(t)
	ctx := WithActor(context.Background(), f.author)
	c, err := f.svc.Create(ctx, CommentInput{Content: "first", EventID: f.eventID})
	require.NoError(t, err)

	later := clock.Add(time.Minute)
	f.svc.now = fixedClock(later)
	updated, err := f.svc.Update(ctx, c.ID, CommentUpdate{Content: "second"})
	require.NoError(t, err)
	assert.Equal(t, "second", updated.Content)
	assert.Equal(t, clock, updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt)

	_, err = f.svc.Update(ctx, 404, CommentUpdate{Content: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.svc.Delete(ctx, c.ID))
	_, err = f.svc.Update(ctx, c.ID, CommentUpdate{Content: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentSoftDeleteVisibility(t *testing.T) {
	f := newCommentFixture(t)
	ctx := WithActor(context.Background(), f.author)
	root, err := f.svc.Create(ctx, CommentInput{Content: "root", EventID: f.eventID})
	require.NoError(t, err)
	rootID := root.ID
	reply, err := f.svc.Create(ctx, CommentInput{Content: "reply", EventID: f.eventID, ParentID: &rootID})
	require.NoError(t, err)
	sibling, err := f.svc.Create(ctx, CommentInput{Content: "sibling", EventID: f.eventID})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, root.ID))

	visible, err := f.svc.ListByEvent(ctx, f.eventID)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, sibling.ID, visible[0].ID)

	for _, id := range []uint64{root.ID, reply.ID} {
		got, err := f.svc.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Deleted)
	}
	assert.ErrorIs(t, f.svc.Delete(ctx, 404), ErrNotFound)
}
