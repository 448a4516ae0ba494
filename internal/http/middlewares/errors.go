package middlewares

import (
	"fmt"
	"log/slog"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/gin-gonic/gin"
)

const genericMessage = "Something went wrong!"

// Fail records err for ErrorHandler and stops the chain. Handlers return
// right after calling it.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

type errorBody struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

// ErrorHandler renders the last error recorded on the context. It must sit
// outside Recovery so recovered panics reach it.
func ErrorHandler(log *slog.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		raw := c.Errors.Last().Err
		appErr := apperr.Normalize(raw)
		status := appErr.Status()
		reqID := RequestIDFrom(c)

		if status >= 500 {
			log.ErrorContext(c.Request.Context(), "request failed",
				"request_id", reqID,
				"code", appErr.Code,
				"err", raw,
			)
		}

		if c.Writer.Written() {
			// a response already went out; nothing left to render
			return
		}

		body := errorBody{
			Code:      appErr.Code,
			Message:   appErr.Message,
			RequestID: reqID,
			Details:   appErr.Details,
		}
		if prod && !appErr.Operational() {
			body.Code = "internal_error"
			body.Message = genericMessage
			body.Details = nil
		}

		state := "fail"
		if status >= 500 {
			state = "error"
		}

		resp := gin.H{"status": state, "error": body}
		if !prod {
			resp["debug"] = raw.Error()
		}
		c.JSON(status, resp)
	}
}

// Recovery turns a panic into an internal error for ErrorHandler.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		Fail(c, apperr.Internal(genericMessage, fmt.Errorf("panic: %v", rec)))
	})
}
