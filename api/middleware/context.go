package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
)

// Actor is the authenticated caller placed on the context by Auth.
type Actor struct {
	ID   uuid.UUID
	Role enums.Role
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the caller and whether one was authenticated.
func ActorFrom(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok && actor.ID != uuid.Nil
}

// ActorID returns the caller's id or an UNAUTHORIZED error.
func ActorID(ctx context.Context) (uuid.UUID, error) {
	actor, ok := ActorFrom(ctx)
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user")
	}
	return actor.ID, nil
}

// scopeOwner names whose idempotency keys a request uses; anonymous callers
// share one scope.
func scopeOwner(ctx context.Context) string {
	if actor, ok := ActorFrom(ctx); ok {
		return actor.ID.String()
	}
	return "anonymous"
}
