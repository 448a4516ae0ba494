package handlers

import (
	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/gin-gonic/gin"
)

// BindJSON decodes and validates the body into out. On failure the error is
// recorded and false is returned.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	return bindWith(ctx, out, ctx.ShouldBindJSON(out))
}

// Bind picks the decoder from Content-Type, so multipart forms work too.
func Bind(ctx *gin.Context, out interface{}) bool {
	return bindWith(ctx, out, ctx.ShouldBind(out))
}

func bindWith(ctx *gin.Context, out interface{}, err error) bool {
	if err == nil {
		return true
	}
	Fail(ctx, apperr.Binding(err, out))
	return false
}
