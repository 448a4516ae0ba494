package apperr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/geocoder89/tourhub/internal/auth"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_PassesAppErrorsThrough(t *testing.T) {
	orig := NotFound("tour_not_found", "No tour found with that ID")
	wrapped := fmt.Errorf("load: %w", orig)

	got := Normalize(wrapped)
	assert.Same(t, orig, got)
	assert.Equal(t, http.StatusNotFound, got.Status())
	assert.True(t, got.Operational())
}

func TestNormalize_Nil(t *testing.T) {
	assert.Nil(t, Normalize(nil))
}

func TestNormalize_PgErrors(t *testing.T) {
	tests := []struct {
		name     string
		pg       *pgconn.PgError
		wantCode string
		wantMsg  string
	}{
		{
			name:     "duplicate",
			pg:       &pgconn.PgError{Code: "23505", Detail: `Key (email)=(ann@example.com) already exists.`, ConstraintName: "users_email_key"},
			wantCode: "duplicate_field",
			wantMsg:  `Duplicate field value: "ann@example.com". Please use another value.`,
		},
		{
			name:     "check violation",
			pg:       &pgconn.PgError{Code: "23514", ConstraintName: "tours_price_discount_check"},
			wantCode: "validation_error",
			wantMsg:  "Invalid input data.",
		},
		{
			name:     "foreign key",
			pg:       &pgconn.PgError{Code: "23503", ConstraintName: "reviews_tour_id_fkey"},
			wantCode: "invalid_reference",
			wantMsg:  "Referenced record does not exist.",
		},
		{
			name:     "malformed value",
			pg:       &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "nope"`},
			wantCode: "invalid_value",
			wantMsg:  `Invalid value: invalid input syntax for type uuid: "nope"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(fmt.Errorf("insert: %w", tc.pg))
			require.NotNil(t, got)
			assert.Equal(t, KindValidation, got.Kind)
			assert.Equal(t, tc.wantCode, got.Code)
			assert.Equal(t, tc.wantMsg, got.Message)
		})
	}
}

func TestNormalize_UnknownPgCodeIsInternal(t *testing.T) {
	got := Normalize(&pgconn.PgError{Code: "40P01"})
	assert.Equal(t, KindInternal, got.Kind)
	assert.False(t, got.Operational())
}

func TestNormalize_TokenErrorsCarryReasons(t *testing.T) {
	expired := Normalize(fmt.Errorf("%w: boom", auth.ErrTokenExpired))
	assert.Equal(t, KindUnauthorized, expired.Kind)
	assert.Equal(t, "expired_token", expired.Code)
	assert.Equal(t, "token_expired", expired.Reason)

	invalid := Normalize(auth.ErrTokenInvalid)
	assert.Equal(t, "invalid_token", invalid.Code)
	assert.Equal(t, "token_invalid", invalid.Reason)

	// the shared sentinels must not be mutated by WithReason
	assert.Empty(t, errInvalidToken.Reason)
}

func TestNormalize_ValidatorErrors(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
	}
	err := validator.New().Struct(payload{Email: "nope"})
	require.Error(t, err)

	got := Normalize(err)
	assert.Equal(t, KindValidation, got.Kind)
	assert.Equal(t, "validation_error", got.Code)

	details, ok := got.Details.(map[string]interface{})
	require.True(t, ok)
	fields := details["fields"].([]FieldError)
	require.Len(t, fields, 1)
	assert.Equal(t, "Email", fields[0].Field)
	assert.Equal(t, "email", fields[0].Rule)
	assert.Equal(t, "must be a valid email address", fields[0].Message)
}

func TestNormalize_JSONErrors(t *testing.T) {
	var v struct {
		Price float64 `json:"price"`
	}
	err := json.Unmarshal([]byte(`{"price":"cheap"}`), &v)
	got := Normalize(err)
	assert.Equal(t, "invalid_json", got.Code)
	assert.Contains(t, got.Message, "price")

	err = json.Unmarshal([]byte(`{"price":`), &v)
	assert.Equal(t, "invalid_json", Normalize(err).Code)
}

func TestNormalize_BodyTooLarge(t *testing.T) {
	got := Normalize(&http.MaxBytesError{Limit: 10})
	assert.Equal(t, http.StatusRequestEntityTooLarge, got.Status())
	assert.Equal(t, "Request body exceeds 10 bytes.", got.Message)
}

func TestNormalize_UnknownIsNonOperational(t *testing.T) {
	cause := errors.New("disk on fire")
	got := Normalize(cause)
	assert.Equal(t, http.StatusInternalServerError, got.Status())
	assert.False(t, got.Operational())
	assert.ErrorIs(t, got, cause)

	timeout := Normalize(context.DeadlineExceeded)
	assert.Equal(t, KindInternal, timeout.Kind)
}

func TestFailed_IsOperational(t *testing.T) {
	err := Failed("email_failed", "There was an error sending the email.", errors.New("smtp down"))
	assert.Equal(t, http.StatusInternalServerError, err.Status())
	assert.True(t, err.Operational())
}

func TestIsKind(t *testing.T) {
	assert.True(t, IsKind(fmt.Errorf("x: %w", Forbidden("no")), KindForbidden))
	assert.False(t, IsKind(errors.New("plain"), KindForbidden))
}

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:       http.StatusBadRequest,
		KindUnauthorized:     http.StatusUnauthorized,
		KindForbidden:        http.StatusForbidden,
		KindNotFound:         http.StatusNotFound,
		KindTooLarge:         http.StatusRequestEntityTooLarge,
		KindUnsupportedMedia: http.StatusUnsupportedMediaType,
		KindRateLimited:      http.StatusTooManyRequests,
		KindInternal:         http.StatusInternalServerError,
	}
	for k, want := range cases {
		assert.Equal(t, want, k.Status(), k.String())
	}
}

func TestBinding_NestedPathsUseJSONNames(t *testing.T) {
	type stop struct {
		Day     int `json:"day" validate:"gte=1"`
		LastDay int `json:"lastDay" validate:"gtefield=Day"`
	}
	type payload struct {
		Name  string `json:"name" validate:"required"`
		Stops []stop `json:"locations" validate:"dive"`
	}

	dst := &payload{Name: "x", Stops: []stop{{Day: 1, LastDay: 1}, {Day: 0, LastDay: 0}, {Day: 4, LastDay: 2}}}
	err := validator.New().Struct(dst)
	require.Error(t, err)

	got := Binding(err, dst)
	assert.Equal(t, "invalid_request", got.Code)

	fields := got.Details.(map[string]interface{})["fields"].([]FieldError)
	require.Len(t, fields, 2)
	assert.Equal(t, FieldError{Field: "locations[1].day", Rule: "gte", Param: "1", Message: "must be at least 1"}, fields[0])
	assert.Equal(t, FieldError{Field: "locations[2].lastDay", Rule: "gtefield", Param: "locations[2].day", Message: "must not be less than locations[2].day"}, fields[1])
}

func TestBinding_BodyTooLargeStaysTooLarge(t *testing.T) {
	got := Binding(&http.MaxBytesError{Limit: 10}, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, got.Status())
}
