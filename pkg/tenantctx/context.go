// Package tenantctx carries the authenticated tenant and actor through a
// request context at the HTTP edge. Core services never read these values
// implicitly; handlers extract them once and pass explicit IDs down.
package tenantctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type contextKey string

const (
	tenantIDKey contextKey = "tenant_id"
	actorIDKey  contextKey = "actor_id"
	roleKey     contextKey = "actor_role"
)

func WithTenantID(ctx context.Context, id snowflake.ID) context.Context {
	return context.WithValue(ctx, tenantIDKey, id)
}

func TenantIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	id, ok := ctx.Value(tenantIDKey).(snowflake.ID)
	return id, ok
}

func WithActor(ctx context.Context, id snowflake.ID, role string) context.Context {
	ctx = context.WithValue(ctx, actorIDKey, id)
	return context.WithValue(ctx, roleKey, role)
}

func ActorIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	id, ok := ctx.Value(actorIDKey).(snowflake.ID)
	return id, ok
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}
