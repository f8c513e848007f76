package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gotogether/ride-pooling/pkg/common"
	"github.com/gotogether/ride-pooling/pkg/models"
)

const (
	// ActorIDHeader carries the authenticated principal's ID, set by the gateway.
	ActorIDHeader = "X-Actor-Id"
	// ActorKindHeader carries the principal type: user, driver or admin.
	ActorKindHeader = "X-Actor-Kind"
	// ActorKey is the gin context key holding the resolved Actor.
	ActorKey = "actor"
)

// ResolveActor reads identity headers into an Actor and stores it in the
// context. Authentication itself happens upstream at the API gateway.
func ResolveActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(ActorIDHeader)
		kind := c.GetHeader(ActorKindHeader)

		if id == "" && kind == "" {
			c.Next()
			return
		}

		actor, err := models.ParseActor(kind, id)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "invalid identity headers")
			c.Abort()
			return
		}

		c.Set(ActorKey, actor)
		c.Next()
	}
}

// RequireActor rejects requests without a resolved Actor.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetActor(c); !ok {
			common.ErrorResponse(c, http.StatusUnauthorized, "identity headers required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireKind rejects requests whose Actor is not one of the allowed kinds.
func RequireKind(kinds ...models.ActorKind) gin.HandlerFunc {
	allowed := make(map[models.ActorKind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			common.ErrorResponse(c, http.StatusUnauthorized, "identity headers required")
			c.Abort()
			return
		}
		if !allowed[actor.Kind] && !actor.IsAdmin() {
			common.ErrorResponse(c, http.StatusForbidden, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetActor extracts the resolved Actor from gin context.
func GetActor(c *gin.Context) (models.Actor, bool) {
	v, exists := c.Get(ActorKey)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}
