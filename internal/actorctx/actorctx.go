// Package actorctx carries the caller of a request on context.Context so
// code below the gate can log who acted without depending on gin.
package actorctx

import "context"

type ctxKey struct{}

type Actor struct {
	UserID    string
	SessionID string
	Moderator bool
}

func With(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func From(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok && a.UserID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	a, ok := From(ctx)
	return a.UserID, ok
}
