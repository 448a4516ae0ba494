package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/geocoder89/tourhub/internal/domain/user"
	"github.com/geocoder89/tourhub/internal/http/middlewares"
	"github.com/geocoder89/tourhub/internal/media"
	"github.com/gin-gonic/gin"
)

// ProfileStore backs the self-service routes.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	Update(ctx context.Context, id string, req user.UpdateRequest) (user.User, error)
	Save(ctx context.Context, u user.User) error
}

var (
	errPasswordRoute = apperr.Validation("password_update_not_allowed", "This route is not for password updates. Please use /updatePassword.", nil)
	errNotAnImage    = apperr.Validation("not_an_image", "Not an image! Please upload only images.", nil)
	errNotLoggedIn   = apperr.Unauthorized("missing_token", "You are not logged in! Please log in to get access.")
)

type UsersHandler struct {
	users     ProfileStore
	photos    media.Store
	maxUpload int64
	log       *slog.Logger
	now       func() time.Time
}

func NewUsersHandler(users ProfileStore, photos media.Store, maxUpload int64, log *slog.Logger) *UsersHandler {
	return &UsersHandler{
		users:     users,
		photos:    photos,
		maxUpload: maxUpload,
		log:       log,
		now:       time.Now,
	}
}

func (h *UsersHandler) Me(ctx *gin.Context) {
	principal, ok := middlewares.CurrentUser(ctx)
	if !ok {
		Fail(ctx, errNotLoggedIn)
		return
	}

	u, err := h.users.GetByID(ctx.Request.Context(), principal.ID)
	if err != nil {
		Fail(ctx, err)
		return
	}
	RespondSuccess(ctx, http.StatusOK, u)
}

// UpdateMe changes name, email and photo. It takes JSON or a multipart form
// with an optional "photo" file.
func (h *UsersHandler) UpdateMe(ctx *gin.Context) {
	principal, ok := middlewares.CurrentUser(ctx)
	if !ok {
		Fail(ctx, errNotLoggedIn)
		return
	}

	var req user.UpdateMeRequest
	if !Bind(ctx, &req) {
		return
	}
	if req.TouchesPassword() {
		Fail(ctx, errPasswordRoute)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 15*time.Second)
	defer cancel()

	photo, err := h.storePhoto(ctx, cctx, principal.ID)
	if err != nil {
		Fail(ctx, err)
		return
	}

	u, err := h.users.Update(cctx, principal.ID, req.AsUpdate(photo))
	if err != nil {
		if photo != "" {
			h.discardPhoto(cctx, photo)
		}
		Fail(ctx, err)
		return
	}
	RespondSuccess(ctx, http.StatusOK, u)
}

// discardPhoto removes an upload the profile never pointed at. It runs even
// if the request was cancelled.
func (h *UsersHandler) discardPhoto(ctx context.Context, name string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := h.photos.Delete(ctx, name); err != nil {
		h.log.WarnContext(ctx, "orphaned photo not removed", "name", name, "err", err)
	}
}

// storePhoto returns "" when the request carries no photo.
func (h *UsersHandler) storePhoto(ctx *gin.Context, cctx context.Context, userID string) (string, error) {
	if !strings.HasPrefix(ctx.ContentType(), "multipart/") {
		return "", nil
	}

	fh, err := ctx.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", apperr.Validation("invalid_request", "Could not read the uploaded photo.", nil).WithCause(err)
	}
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return "", errNotAnImage
	}

	data, err := h.readUpload(fh)
	if err != nil {
		return "", err
	}

	resized, err := media.Resize(data)
	if err != nil {
		return "", errNotAnImage.WithCause(err)
	}

	name, err := h.photos.Put(cctx, media.PhotoKey(userID, h.now().Unix()), resized, "image/jpeg")
	if err != nil {
		return "", apperr.Internal("Could not store photo", err)
	}

	h.log.InfoContext(cctx, "photo stored", "user_id", userID, "name", name, "bytes", len(resized))
	return name, nil
}

func (h *UsersHandler) readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		return nil, apperr.TooLarge("Photo is too large.")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperr.Internal("Could not read photo", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperr.Internal("Could not read photo", err)
	}
	return data, nil
}

// DeleteMe deactivates the account; the record stays for bookings and
// reviews.
func (h *UsersHandler) DeleteMe(ctx *gin.Context) {
	principal, ok := middlewares.CurrentUser(ctx)
	if !ok {
		Fail(ctx, errNotLoggedIn)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, principal.ID)
	if err != nil {
		Fail(ctx, err)
		return
	}

	u.Active = false
	u.UpdatedAt = h.now().UTC()
	if err := h.users.Save(cctx, u); err != nil {
		Fail(ctx, err)
		return
	}

	RespondNoContent(ctx)
}

// HashOnCreate fills PasswordHash on admin-created users.
func HashOnCreate(hasher PasswordHasher) func(*gin.Context, *user.CreateRequest) error {
	return func(_ *gin.Context, req *user.CreateRequest) error {
		hash, err := hasher.Hash(req.Password)
		if err != nil {
			return apperr.Internal("Could not create user", err)
		}
		req.PasswordHash = hash
		return nil
	}
}
