package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/tourhub/internal/queue"
	"github.com/gin-gonic/gin"
)

type QueueInspector interface {
	Depth(ctx context.Context) (queue.Depth, error)
}

type AdminQueueHandler struct {
	queue QueueInspector
}

func NewAdminQueueHandler(q QueueInspector) *AdminQueueHandler {
	return &AdminQueueHandler{queue: q}
}

// Depth reports ready, delayed and dead-lettered email jobs.
// GET /admin/queue
func (h *AdminQueueHandler) Depth(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	d, err := h.queue.Depth(cctx)
	if err != nil {
		Fail(ctx, err)
		return
	}
	RespondSuccess(ctx, http.StatusOK, d)
}
