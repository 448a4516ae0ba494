package middlewares

import (
	"fmt"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/geocoder89/tourhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

var errForbidden = apperr.Forbidden("You do not have permission to perform this action")

// RequireRoles only lets principals with one of roles through. It runs after
// RequireAuth. Unknown role names are a wiring bug and panic at startup.
func RequireRoles(roles ...user.Role) gin.HandlerFunc {
	if len(roles) == 0 {
		panic("middlewares: RequireRoles needs at least one role")
	}

	allowed := make(map[user.Role]struct{}, len(roles))
	for _, r := range roles {
		if !r.Valid() {
			panic(fmt.Sprintf("middlewares: unknown role %q", r))
		}
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			Fail(c, errMissingToken)
			return
		}
		if _, ok := allowed[u.Role]; !ok {
			Fail(c, errForbidden)
			return
		}
		c.Next()
	}
}
