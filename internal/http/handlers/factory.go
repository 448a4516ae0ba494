package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/tourhub/internal/query"
	"github.com/gin-gonic/gin"
)

// Store is the persistence every resource handler needs. C and U are the
// create and partial update payloads.
type Store[T, C, U any] interface {
	Count(ctx context.Context, spec query.Spec) (int, error)
	Find(ctx context.Context, spec query.Spec) ([]T, error)
	GetByID(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, req C) (T, error)
	Update(ctx context.Context, id string, req U) (T, error)
	Delete(ctx context.Context, id string) error
}

type ResourceConfig[T, C any] struct {
	Name  string
	Query query.Options

	// Scope adds predicates every list request must satisfy, e.g. the
	// tour id of a nested review route.
	Scope func(*gin.Context) ([]query.Predicate, error)
	// Prepare fills server-side fields of a create payload before it is
	// validated.
	Prepare func(*gin.Context, *C) error
	// Expand decorates a single record fetched by Get.
	Expand func(context.Context, *T) error
	// AfterWrite runs after every successful create, update or delete.
	AfterWrite func()

	Timeout time.Duration
}

type validatable interface {
	Validate() error
}

// Resource is the generic CRUD handler set. Every resource route in the API
// is one of these plus a config.
type Resource[T, C, U any] struct {
	store Store[T, C, U]
	cfg   ResourceConfig[T, C]
}

func NewResource[T, C, U any](store Store[T, C, U], cfg ResourceConfig[T, C]) *Resource[T, C, U] {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Resource[T, C, U]{store: store, cfg: cfg}
}

func (h *Resource[T, C, U]) context(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), h.cfg.Timeout)
}

func (h *Resource[T, C, U]) List(ctx *gin.Context) {
	spec, err := query.Parse(ctx.Request.URL.Query(), h.cfg.Query)
	if err != nil {
		Fail(ctx, err)
		return
	}

	if h.cfg.Scope != nil {
		preds, err := h.cfg.Scope(ctx)
		if err != nil {
			Fail(ctx, err)
			return
		}
		for _, p := range preds {
			spec = spec.WithFilter(p)
		}
	}

	cctx, cancel := h.context(ctx)
	defer cancel()

	total, err := h.store.Count(cctx, spec)
	if err != nil {
		Fail(ctx, err)
		return
	}
	if err := spec.CheckPage(total); err != nil {
		Fail(ctx, err)
		return
	}

	items, err := h.store.Find(cctx, spec)
	if err != nil {
		Fail(ctx, err)
		return
	}

	data, err := query.Project(items, spec.Projection)
	if err != nil {
		Fail(ctx, err)
		return
	}

	RespondList(ctx, len(items), data)
}

func (h *Resource[T, C, U]) Get(ctx *gin.Context) {
	cctx, cancel := h.context(ctx)
	defer cancel()

	item, err := h.store.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		Fail(ctx, err)
		return
	}

	if h.cfg.Expand != nil {
		if err := h.cfg.Expand(cctx, &item); err != nil {
			Fail(ctx, err)
			return
		}
	}

	RespondSuccessWithETag(ctx, http.StatusOK, item)
}

func (h *Resource[T, C, U]) Create(ctx *gin.Context) {
	var req C
	if !BindJSON(ctx, &req) {
		return
	}

	if h.cfg.Prepare != nil {
		if err := h.cfg.Prepare(ctx, &req); err != nil {
			Fail(ctx, err)
			return
		}
	}
	if v, ok := any(req).(validatable); ok {
		if err := v.Validate(); err != nil {
			Fail(ctx, err)
			return
		}
	}

	cctx, cancel := h.context(ctx)
	defer cancel()

	item, err := h.store.Create(cctx, req)
	if err != nil {
		Fail(ctx, err)
		return
	}
	h.written()

	RespondSuccess(ctx, http.StatusCreated, item)
}

func (h *Resource[T, C, U]) Update(ctx *gin.Context) {
	var req U
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := h.context(ctx)
	defer cancel()

	// the store merges and re-validates the full record
	item, err := h.store.Update(cctx, ctx.Param("id"), req)
	if err != nil {
		Fail(ctx, err)
		return
	}
	h.written()

	RespondSuccess(ctx, http.StatusOK, item)
}

func (h *Resource[T, C, U]) Delete(ctx *gin.Context) {
	cctx, cancel := h.context(ctx)
	defer cancel()

	if err := h.store.Delete(cctx, ctx.Param("id")); err != nil {
		Fail(ctx, err)
		return
	}
	h.written()

	RespondNoContent(ctx)
}

func (h *Resource[T, C, U]) written() {
	if h.cfg.AfterWrite != nil {
		h.cfg.AfterWrite()
	}
}
