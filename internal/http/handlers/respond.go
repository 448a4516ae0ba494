package handlers

import (
	"net/http"

	"github.com/geocoder89/tourhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Fail hands err to the error middleware and aborts. Return right after.
func Fail(ctx *gin.Context, err error) {
	middlewares.Fail(ctx, err)
}

func RespondSuccess(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, gin.H{"status": "success", "data": data})
}

func RespondList(ctx *gin.Context, results int, data interface{}) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": results,
		"data":    data,
	})
}

func RespondNoContent(ctx *gin.Context) {
	ctx.Status(http.StatusNoContent)
}
