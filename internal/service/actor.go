package service

import "context"

type actorKey struct{}

// WithActor records the authenticated user id on ctx.  Services read it
// to attribute activity events and to default ownership fields.
func WithActor(ctx context.Context, userID uint64) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the user id stored by WithActor, or 0.
func ActorFrom(ctx context.Context) uint64 {
	id, _ := ctx.Value(actorKey{}).(uint64)
	return id
}
