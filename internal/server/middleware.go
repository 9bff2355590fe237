package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/syedarifiqbal/digitizing-workflow-sub000/pkg/tenantctx"
)

const (
	HeaderTenant    = "X-Tenant-ID"
	HeaderActor     = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// TenantContext resolves the tenant and actor headers once per request. An
// identity provider would normally sit in front of this; the headers are the
// trust boundary here.
func (s *Server) TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderTenant))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		tenantID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := tenantctx.WithTenantID(c.Request.Context(), tenantID)
		if rawActor := strings.TrimSpace(c.GetHeader(HeaderActor)); rawActor != "" {
			actorID, err := snowflake.ParseString(rawActor)
			if err != nil {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			ctx = tenantctx.WithActor(ctx, actorID, strings.TrimSpace(c.GetHeader(HeaderActorRole)))
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) tenantID(c *gin.Context) (snowflake.ID, bool) {
	id, ok := tenantctx.TenantIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
	}
	return id, ok
}

func (s *Server) actor(c *gin.Context) (snowflake.ID, string) {
	id, _ := tenantctx.ActorIDFromContext(c.Request.Context())
	return id, tenantctx.RoleFromContext(c.Request.Context())
}
