package actorctx

import "context"

type ctxKey struct{}

type Actor struct {
	Username string
	IsAdmin  bool
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func From(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)

	return a, ok && a.Username != ""
}

func UsernameFrom(ctx context.Context) (string, bool) {
	a, ok := From(ctx)
	return a.Username, ok
}
