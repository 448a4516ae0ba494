package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/gin-gonic/gin"
)

// RequireJSON rejects write requests that are not JSON. extra lists further
// accepted media types, e.g. multipart/form-data for photo uploads.
func RequireJSON(extra ...string) gin.HandlerFunc {
	accepted := append([]string{"application/json"}, extra...)
	msg := "Content-Type must be " + strings.Join(accepted, " or ")

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			// bodiless writes such as POST /logout
			if c.Request.ContentLength == 0 {
				break
			}
			ct := strings.ToLower(c.GetHeader("Content-Type"))
			// allow "application/json; charset=utf-8"
			if !hasAnyPrefix(ct, accepted) {
				Fail(c, apperr.UnsupportedMedia(msg))
				return
			}
		}
		c.Next()
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
