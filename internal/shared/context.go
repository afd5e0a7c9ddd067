package shared

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const actorKey contextKey = "kinia.actor"

// ActorHeader carries the acting-user identifier supplied by the identity collaborator.
const ActorHeader = "X-Actor-ID"

// ContextWithActor stores the acting-user identifier on the context.
func ContextWithActor(ctx context.Context, actor uuid.UUID) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the acting-user identifier, if any.
func ActorFromContext(ctx context.Context) (uuid.UUID, bool) {
	actor, ok := ctx.Value(actorKey).(uuid.UUID)
	if !ok || actor == uuid.Nil {
		return uuid.Nil, false
	}
	return actor, true
}
