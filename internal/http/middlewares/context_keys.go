package middlewares

import (
	"github.com/geocoder89/tourhub/internal/actorctx"
	"github.com/geocoder89/tourhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

const (
	CtxRequestID = "request_id"
	ctxUserKey   = "auth.user"
)

// SetUser attaches the principal to both the gin context and the request
// context, so stores and loggers below the handler can see it too.
func SetUser(c *gin.Context, u user.User) {
	c.Set(ctxUserKey, u)
	c.Request = c.Request.WithContext(actorctx.WithUser(c.Request.Context(), u))
}

func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok && u.ID != ""
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	u, ok := CurrentUser(c)
	return u.ID, ok
}

func RequestIDFrom(c *gin.Context) string {
	if v, ok := c.Get(CtxRequestID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return c.GetHeader(requestIDHeader)
}
