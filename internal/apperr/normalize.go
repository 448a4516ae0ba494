package apperr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/geocoder89/tourhub/internal/auth"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	errInvalidToken = Unauthorized("invalid_token", "Token is invalid. Please log in again.")
	errExpiredToken = Unauthorized("expired_token", "Your token has expired. Please log in again.")
)

// Normalize turns any failure into an *Error. Unknown failures become
// non-operational internal errors.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromPgError(pgErr, err)
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return TooLarge(fmt.Sprintf("Request body exceeds %d bytes.", maxBytesErr.Limit)).WithCause(err)
	}

	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return errExpiredToken.WithCause(err).WithReason("token_expired")
	case errors.Is(err, auth.ErrTokenInvalid):
		return errInvalidToken.WithCause(err).WithReason("token_invalid")
	case errors.Is(err, context.DeadlineExceeded):
		return Internal("The request took too long to complete", err)
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		// without the target type the fields keep their Go names
		fields := describeFields(nil, validationErrs)
		return Validation("validation_error", "Invalid input data.", map[string]interface{}{"fields": fields}).WithCause(err)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return Validation("invalid_json", "Request body is not valid JSON.", nil).WithCause(err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return Validation("invalid_json", fmt.Sprintf("Invalid %s: must be of type %s", typeErr.Field, typeErr.Type), nil).WithCause(err)
	}

	return Internal("Something went wrong!", err)
}

func fromPgError(pgErr *pgconn.PgError, cause error) *Error {
	switch pgErr.Code {
	case "23505":
		return Validation(
			"duplicate_field",
			fmt.Sprintf("Duplicate field value: %s. Please use another value.", duplicateValue(pgErr.Detail)),
			map[string]string{"constraint": pgErr.ConstraintName},
		).WithCause(cause)
	case "23514", "23502":
		return Validation("validation_error", "Invalid input data.", map[string]string{
			"constraint": pgErr.ConstraintName,
			"column":     pgErr.ColumnName,
		}).WithCause(cause)
	case "23503":
		return Validation("invalid_reference", "Referenced record does not exist.", map[string]string{
			"constraint": pgErr.ConstraintName,
		}).WithCause(cause)
	case "22P02", "22007", "22008":
		return Validation("invalid_value", "Invalid value: "+pgErr.Message, nil).WithCause(cause)
	default:
		return Internal("Something went wrong!", cause)
	}
}

// duplicateValue pulls "(email)=(a@b.c)" out of a unique violation detail.
func duplicateValue(detail string) string {
	_, after, ok := strings.Cut(detail, "=(")
	if !ok {
		return "value"
	}
	v, _, _ := strings.Cut(after, ")")
	return `"` + v + `"`
}
