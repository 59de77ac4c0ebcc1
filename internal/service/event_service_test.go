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

var clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type eventFixture struct {
	svc      *EventService
	events   *memEvents
	comments *memComments
	users    *memUsers
	pub      *recordingPublisher
	owner    uint64
}

func newEventFixture() *eventFixture {
	users := newMemUsers()
	owner := users.add("owner")
	comments := newMemComments()
	events := newMemEvents(comments)
	pub := &recordingPublisher{}
	svc := NewEventService(events, users, pub)
	svc.now = fixedClock(clock)
	return &eventFixture{svc: svc, events: events, comments: comments, users: users, pub: pub, owner: owner}
}

func validEvent(owner uint64) EventInput {
	start := time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC)
	return EventInput{
		Title:        "Jazz night",
		Description:  "<p>Live <b>jazz</b></p><script>alert(1)</script>",
		StartsAt:     start,
		EndsAt:       start.Add(3 * time.Hour),
		LocationText: "Parque <i>Lleras</i>",
		CreatedBy:    owner,
	}
}

func TestEventCreateThenGetRoundTrip(t *testing.T) {
	f := newEventFixture()
	ctx := WithActor(context.Background(), f.owner)

	created, err := f.svc.Create(ctx, validEvent(f.owner))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, clock, created.CreatedAt)
	assert.Equal(t, clock, created.UpdatedAt)
	assert.True(t, created.IsActive)
	assert.Equal(t, "<p>Live <b>jazz</b></p>", created.Description)
	assert.Equal(t, "Parque Lleras", created.LocationText)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, []string{queue.EventCreated}, f.pub.types())
	assert.Equal(t, f.owner, f.pub.events[0].ActorID)
}

func TestEventCreateDefaultsCreatorToActor(t *testing.T) {
	f := newEventFixture()
	in := validEvent(0)

	created, err := f.svc.Create(WithActor(context.Background(), f.owner), in)
	require.NoError(t, err)
	assert.Equal(t, f.owner, created.CreatedBy)
}

func TestEventCreateValidation(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*EventInput)
		detail string
	}{
		{"ends before start", func(in *EventInput) { in.EndsAt = in.StartsAt.Add(-time.Minute) }, "endsAt must not be before startsAt"},
		{"missing title", func(in *EventInput) { in.Title = "<b></b>" }, "title is required"},
		{"bad image url", func(in *EventInput) { s := "not a url"; in.ImageURL = &s }, "imageUrl must be a valid URL"},
		{"unknown creator", func(in *EventInput) { in.CreatedBy = 999 }, "createdBy refers to unknown user 999"},
		{"no creator", func(in *EventInput) { in.CreatedBy = 0 }, "createdBy is required"},
		{"description over column bytes", func(in *EventInput) { in.Description = strings.Repeat("é", 40000) }, "description must be at most 65535 bytes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validEvent(f.owner)
			tc.mutate(&in)
			_, err := f.svc.Create(ctx, in)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Contains(t, ve.Details, tc.detail)
		})
	}
	assert.Empty(t, f.events.rows)
}

func TestEventStartEqualsEndIsAllowed(t *testing.T) {
	f := newEventFixture()
	in := validEvent(f.owner)
	in.EndsAt = in.StartsAt

	_, err := f.svc.Create(context.Background(), in)
	assert.NoError(t, err)
}

func TestEventUpdate(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()
	created, err := f.svc.Create(ctx, validEvent(f.owner))
	require.NoError(t, err)

	later := clock.Add(time.Hour)
	f.svc.now = fixedClock(later)
	inactive := false
	in := validEvent(0)
	in.ID = created.ID
	in.Title = "Jazz night (moved)"
	in.IsActive = &inactive

	updated, err := f.svc.Update(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Jazz night (moved)", updated.Title)
	assert.Equal(t, f.owner, updated.CreatedBy)
	assert.Equal(t, clock, updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt)
	assert.False(t, updated.IsActive)

	in.ID = 404
	_, err = f.svc.Update(ctx, in)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventListPaginationAndClamping(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, err := f.svc.Create(ctx, validEvent(f.owner))
		require.NoError(t, err)
	}

	first, err := f.svc.List(ctx, 0, 0, "")
	require.NoError(t, err)
	assert.Len(t, first, DefaultPageSize)
	assert.Equal(t, uint64(1), first[0].ID)

	second, err := f.svc.List(ctx, 1, 10, "")
	require.NoError(t, err)
	assert.Len(t, second, 2)
	assert.Equal(t, uint64(11), second[0].ID)

	_, err = f.svc.List(ctx, -3, 1000, "jazz")
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, f.events.lastList.Limit)
	assert.Equal(t, 0, f.events.lastList.Offset)
	assert.Equal(t, "jazz", f.events.lastList.Query)
}

func TestEventListIncludesInactive(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()
	inactive := false
	in := validEvent(f.owner)
	in.IsActive = &inactive
	hidden, err := f.svc.Create(ctx, in)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, validEvent(f.owner))
	require.NoError(t, err)

	page, err := f.svc.List(ctx, 0, 10, "")
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, hidden.ID, page[0].ID)
}

func TestEventDelete(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()
	created, err := f.svc.Create(ctx, validEvent(f.owner))
	require.NoError(t, err)
	require.NoError(t, f.comments.Create(ctx, &model.Comment{Content: "hi", AuthorID: f.owner, EventID: created.ID}))

	require.NoError(t, f.svc.Delete(ctx, created.ID))
	_, err = f.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.comments.rows)

	assert.ErrorIs(t, f.svc.Delete(ctx, created.ID), ErrNotFound)
}

func TestEventListByUser(t *testing.T) {
	f := newEventFixture()
	ctx := context.Background()
	other := f.users.add("other")
	_, err := f.svc.Create(ctx, validEvent(f.owner))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, validEvent(other))
	require.NoError(t, err)

	mine, err := f.svc.ListByUser(ctx, other)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, other, mine[0].CreatedBy)
}
