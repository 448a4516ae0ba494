package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps request bodies. Multipart uploads get their own,
// larger cap.
func MaxBodyBytes(jsonMax, multipartMax int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		max := jsonMax
		if isMultipart(ctx.GetHeader("Content-Type")) {
			max = multipartMax
		}
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)

		ctx.Next()
	}
}

func isMultipart(ct string) bool {
	return strings.HasPrefix(strings.ToLower(ct), "multipart/form-data")
}
