package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/geocoder89/tourhub/internal/auth"
	"github.com/geocoder89/tourhub/internal/config"
	"github.com/geocoder89/tourhub/internal/domain/user"
	"github.com/geocoder89/tourhub/internal/http/middlewares"
	"github.com/geocoder89/tourhub/internal/jobs"
	"github.com/geocoder89/tourhub/internal/notifications"
	"github.com/gin-gonic/gin"
)

// AuthStore is everything the credential flows read and write.
type AuthStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByResetDigest(ctx context.Context, digest string) (user.User, error)
	Insert(ctx context.Context, u user.User) error
	Save(ctx context.Context, u user.User) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Check(hash, plain string) error
}

type Enqueuer interface {
	Enqueue(ctx context.Context, j jobs.Job) error
}

const (
	forgotPasswordMessage = "If an account with that email exists, a reset link has been sent to it."
	resetMailFailed       = "There was an error sending the email. Try again later!"
)

var (
	errBadCredentials = apperr.Unauthorized("invalid_credentials", "Incorrect email or password.")
	errWrongPassword  = apperr.Unauthorized("incorrect_password", "Your current password is wrong.")
	errResetToken     = apperr.Validation("invalid_or_expired_token", "Token is invalid or has expired.", nil)
)

type AuthHandler struct {
	users  AuthStore
	jwt    *auth.Manager
	hasher PasswordHasher
	mailer notifications.Mailer
	queue  Enqueuer
	cfg    config.Config
	log    *slog.Logger
	now    func() time.Time
}

func NewAuthHandler(users AuthStore, jwtManager *auth.Manager, hasher PasswordHasher, mailer notifications.Mailer, queue Enqueuer, cfg config.Config, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		jwt:    jwtManager,
		hasher: hasher,
		mailer: mailer,
		queue:  queue,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// WithClock swaps the time source; used by tests.
func (h *AuthHandler) WithClock(now func() time.Time) *AuthHandler {
	cp := *h
	cp.now = now
	return &cp
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" binding:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" binding:"required"`
	Password        string `json:"password" binding:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req user.SignUpRequest
	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		Fail(ctx, apperr.Internal("Could not create user", err))
		return
	}

	// self-service signups are always plain users
	u := user.NewFromCreateRequest(user.CreateRequest{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}, h.now())

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.users.Insert(cctx, u); err != nil {
		Fail(ctx, err)
		return
	}

	h.enqueue(ctx, jobs.JobSendWelcomeEmail, jobs.WelcomeEmailPayload{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		URL:    h.cfg.AppURL + "/me",
	})

	h.sendToken(ctx, http.StatusCreated, u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	found, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			Fail(ctx, errBadCredentials)
			return
		}
		Fail(ctx, err)
		return
	}

	if err := h.hasher.Check(found.PasswordHash, req.Password); err != nil {
		Fail(ctx, errBadCredentials)
		return
	}

	h.sendToken(ctx, http.StatusOK, found)
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.setCookie(ctx, middlewares.LoggedOutCookie, 10*time.Second)
	ctx.JSON(http.StatusOK, gin.H{"status": "success"})
}

// ForgotPassword answers the same way whether or not the email is known.
func (h *AuthHandler) ForgotPassword(ctx *gin.Context) {
	var req ForgotPasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 10*time.Second)
	defer cancel()

	u, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			h.forgotAccepted(ctx)
			return
		}
		Fail(ctx, err)
		return
	}

	token, err := h.jwt.NewResetToken()
	if err != nil {
		Fail(ctx, apperr.Internal("Could not create reset token", err))
		return
	}

	u.SetResetToken(token.Digest, token.ExpiresAt)
	if err := h.users.Save(cctx, u); err != nil {
		Fail(ctx, err)
		return
	}

	resetURL := h.cfg.AppURL + "/api/v1/users/resetPassword/" + token.Raw
	msg := notifications.PasswordResetMessage(u.Email, u.Name, resetURL, h.cfg.ResetTokenTTL)

	if err := h.mailer.Send(cctx, msg); err != nil {
		// the user never got the token; do not leave a live one behind
		u.ClearResetToken()
		if rbErr := h.users.Save(context.WithoutCancel(cctx), u); rbErr != nil {
			h.log.ErrorContext(cctx, "reset token rollback failed", "user_id", u.ID, "err", rbErr)
		}
		Fail(ctx, apperr.Failed("email_failed", resetMailFailed, err))
		return
	}

	h.forgotAccepted(ctx)
}

func (h *AuthHandler) forgotAccepted(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": forgotPasswordMessage})
}

func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	digest := auth.ResetDigest(ctx.Param("token"))
	u, err := h.users.GetByResetDigest(cctx, digest)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			Fail(ctx, errResetToken)
			return
		}
		Fail(ctx, err)
		return
	}

	if !u.ResetTokenUsable(digest, h.now()) {
		Fail(ctx, errResetToken)
		return
	}

	if !h.changePassword(ctx, cctx, &u, req.Password) {
		return
	}
	h.sendToken(ctx, http.StatusOK, u)
}

func (h *AuthHandler) UpdatePassword(ctx *gin.Context) {
	var req UpdatePasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	principal, ok := middlewares.CurrentUser(ctx)
	if !ok {
		Fail(ctx, apperr.Unauthorized("missing_token", "You are not logged in! Please log in to get access."))
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, principal.ID)
	if err != nil {
		Fail(ctx, err)
		return
	}

	if err := h.hasher.Check(u.PasswordHash, req.PasswordCurrent); err != nil {
		Fail(ctx, errWrongPassword)
		return
	}

	if !h.changePassword(ctx, cctx, &u, req.Password) {
		return
	}
	h.sendToken(ctx, http.StatusOK, u)
}

func (h *AuthHandler) changePassword(ctx *gin.Context, cctx context.Context, u *user.User, plain string) bool {
	hash, err := h.hasher.Hash(plain)
	if err != nil {
		Fail(ctx, apperr.Internal("Could not update password", err))
		return false
	}

	u.SetPassword(hash, h.now())
	if err := h.users.Save(cctx, *u); err != nil {
		Fail(ctx, err)
		return false
	}

	h.enqueue(ctx, jobs.JobSendPasswordChanged, jobs.PasswordChangedPayload{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		ChangedAt: *u.PasswordChangedAt,
	})
	return true
}

// enqueue is fire and forget: a lost notification never fails the request.
func (h *AuthHandler) enqueue(ctx *gin.Context, t jobs.JobType, payload any) {
	if h.queue == nil {
		return
	}

	j, err := jobs.New(t, payload)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "build job", "type", t, "err", err)
		return
	}
	j.RequestID = middlewares.RequestIDFrom(ctx)

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx.Request.Context()), 2*time.Second)
	defer cancel()

	if err := h.queue.Enqueue(cctx, j); err != nil {
		h.log.WarnContext(cctx, "enqueue failed", "type", t, "job_id", j.ID, "err", err)
	}
}

func (h *AuthHandler) sendToken(ctx *gin.Context, status int, u user.User) {
	token, err := h.jwt.Issue(u.ID)
	if err != nil {
		Fail(ctx, apperr.Internal("Could not generate access token", err))
		return
	}

	h.setCookie(ctx, token, h.cfg.JWTCookieExpiresIn)

	ctx.JSON(status, gin.H{
		"status": "success",
		"token":  token,
		"data":   gin.H{"user": u},
	})
}

func (h *AuthHandler) setCookie(ctx *gin.Context, value string, ttl time.Duration) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(
		middlewares.TokenCookie,
		value,
		int(ttl.Seconds()),
		"/",
		"",
		h.cfg.IsProd(),
		true,
	)
}
