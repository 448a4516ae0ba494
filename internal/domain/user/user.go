package user

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/geocoder89/tourhub/internal/query"
	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

var knownRoles = []Role{RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin}

func (r Role) Valid() bool {
	for _, k := range knownRoles {
		if r == k {
			return true
		}
	}
	return false
}

const DefaultPhoto = "default.jpg"

var ErrNotFound = apperr.NotFound("user_not_found", "No user found with that ID")

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
	Role  Role   `json:"role"`

	// never expose credentials in JSON
	PasswordHash         string     `json:"-"`
	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetToken   *string    `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	Active               bool       `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChangedPasswordAfter reports whether the password changed after a token
// issued at iat. Token timestamps carry whole seconds, so the comparison
// does too.
func (u User) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > iat.Unix()
}

// ResetTokenUsable reports whether digest matches the stored reset token and
// the token has not expired at now.
func (u User) ResetTokenUsable(digest string, now time.Time) bool {
	if u.PasswordResetToken == nil || u.PasswordResetExpires == nil {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(*u.PasswordResetToken), []byte(digest)) != 1 {
		return false
	}
	return now.Before(*u.PasswordResetExpires)
}

// SetPassword stores a new hash, refreshes the change timestamp and drops any
// pending reset token.
func (u *User) SetPassword(hash string, now time.Time) {
	at := now.UTC()
	u.PasswordHash = hash
	u.PasswordChangedAt = &at
	u.UpdatedAt = at
	u.ClearResetToken()
}

func (u *User) SetResetToken(digest string, expiresAt time.Time) {
	exp := expiresAt.UTC()
	u.PasswordResetToken = &digest
	u.PasswordResetExpires = &exp
}

func (u *User) ClearResetToken() {
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type SignUpRequest struct {
	Name            string `json:"name" binding:"required,min=1,max=80"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

// CreateRequest is the admin create payload. PasswordHash is filled by the
// handler before the record is stored.
type CreateRequest struct {
	Name            string `json:"name" binding:"required,min=1,max=80"`
	Email           string `json:"email" binding:"required,email"`
	Photo           string `json:"photo" binding:"omitempty,max=255"`
	Role            Role   `json:"role" binding:"omitempty,oneof=user guide lead-guide admin"`
	Password        string `json:"password" binding:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`

	PasswordHash string `json:"-"`
}

func NewFromCreateRequest(req CreateRequest, now time.Time) User {
	now = now.UTC()

	role := req.Role
	if role == "" {
		role = RoleUser
	}
	photo := strings.TrimSpace(req.Photo)
	if photo == "" {
		photo = DefaultPhoto
	}

	return User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        NormalizeEmail(req.Email),
		Photo:        photo,
		Role:         role,
		PasswordHash: req.PasswordHash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// UpdateRequest is the admin partial update. Passwords are not updatable here.
type UpdateRequest struct {
	Name   *string `json:"name" binding:"omitempty,min=1,max=80"`
	Email  *string `json:"email" binding:"omitempty,email"`
	Photo  *string `json:"photo" binding:"omitempty,max=255"`
	Role   *Role   `json:"role" binding:"omitempty,oneof=user guide lead-guide admin"`
	Active *bool   `json:"active"`
}

// UpdateMeRequest carries the self-service fields. The password fields are
// only decoded so they can be rejected.
type UpdateMeRequest struct {
	Name            *string `json:"name" form:"name" binding:"omitempty,min=1,max=80"`
	Email           *string `json:"email" form:"email" binding:"omitempty,email"`
	Password        string  `json:"password" form:"password"`
	PasswordConfirm string  `json:"passwordConfirm" form:"passwordConfirm"`
}

func (r UpdateMeRequest) TouchesPassword() bool {
	return r.Password != "" || r.PasswordConfirm != ""
}

func (r UpdateMeRequest) AsUpdate(photo string) UpdateRequest {
	upd := UpdateRequest{Name: r.Name, Email: r.Email}
	if photo != "" {
		upd.Photo = &photo
	}
	return upd
}

func ApplyUpdate(u *User, req UpdateRequest, now time.Time) {
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		u.Email = NormalizeEmail(*req.Email)
	}
	if req.Photo != nil {
		u.Photo = strings.TrimSpace(*req.Photo)
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	u.UpdatedAt = now.UTC()
}

// Validate re-checks a merged record before it is written.
func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return apperr.Validation("validation_error", "Please provide a user name.", nil)
	}
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return apperr.Validation("validation_error", "Please provide a valid email address.", nil)
	}
	if !u.Role.Valid() {
		return apperr.Validation("validation_error", "Unknown role: "+string(u.Role), nil)
	}
	return nil
}

var Schema = query.Schema{
	"id":        {Column: "id", Kind: query.KindUUID},
	"name":      {Column: "name", Kind: query.KindText},
	"email":     {Column: "email", Kind: query.KindText},
	"role":      {Column: "role", Kind: query.KindText},
	"photo":     {Column: "photo", Kind: query.KindOpaque},
	"createdAt": {Column: "created_at", Kind: query.KindTime},
	"updatedAt": {Column: "updated_at", Kind: query.KindTime},
}

var QueryOptions = query.Options{
	Schema:      Schema,
	DefaultSort: []query.SortKey{{Field: "createdAt", Desc: true}},
}
