package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/geocoder89/tourhub/internal/domain/review"
	"github.com/geocoder89/tourhub/internal/domain/tour"
	"github.com/geocoder89/tourhub/internal/domain/user"
	"github.com/geocoder89/tourhub/internal/http/handlers"
	"github.com/geocoder89/tourhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindFailure struct {
	Status string `json:"status"`
	Error  struct {
		Code    string `json:"code"`
		Details struct {
			JSON   string              `json:"json"`
			Field  string              `json:"field"`
			Fields []apperr.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

type dayWindow struct {
	StartDay int `json:"startDay" binding:"required,ltfield=EndDay"`
	EndDay   int `json:"endDay" binding:"required"`
}

// postBound binds the body into a fresh T and answers 201 when it passes.
func postBound[T any](t *testing.T, body string) (int, bindFailure) {
	t.Helper()

	r := gin.New()
	r.Use(middlewares.ErrorHandler(discardLogger, false))
	r.POST("/", func(ctx *gin.Context) {
		var req T
		if handlers.BindJSON(ctx, &req) {
			ctx.Status(http.StatusCreated)
		}
	})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out bindFailure
	if w.Code != http.StatusCreated {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func fieldsByName(fields []apperr.FieldError) map[string]apperr.FieldError {
	m := make(map[string]apperr.FieldError, len(fields))
	for _, f := range fields {
		m[f.Field] = f
	}
	return m
}

func TestBindReportsJSONFieldPaths(t *testing.T) {
	code, resp := postBound[tour.CreateRequest](t, `{"name":"short","startLocation":{"type":"Point","coordinates":[1]}}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "fail", resp.Status)
	assert.Equal(t, "invalid_request", resp.Error.Code)

	got := fieldsByName(resp.Error.Details.Fields)
	for field, rule := range map[string]string{
		"name":                      "min",
		"duration":                  "required",
		"maxGroupSize":              "required",
		"difficulty":                "required",
		"imageCover":                "required",
		"startLocation.coordinates": "len",
	} {
		fe, ok := got[field]
		if assert.True(t, ok, "no error for %q in %+v", field, resp.Error.Details.Fields) {
			assert.Equal(t, rule, fe.Rule, field)
			assert.NotEmpty(t, fe.Message, field)
		}
	}
	assert.Equal(t, "must be exactly 2 items", got["startLocation.coordinates"].Message)
}

func TestBindResolvesRuleParams(t *testing.T) {
	tests := []struct {
		name    string
		bind    func(t *testing.T, body string) (int, bindFailure)
		body    string
		field   string
		rule    string
		param   string
		message string
	}{
		{
			name:    "eqfield names the json sibling",
			bind:    postBound[user.SignUpRequest],
			body:    `{"name":"Ann","email":"ann@example.com","password":"pass1234","passwordConfirm":"pass9999"}`,
			field:   "passwordConfirm",
			rule:    "eqfield",
			param:   "password",
			message: "must match password",
		},
		{
			name:    "ltfield names the json sibling",
			bind:    postBound[dayWindow],
			body:    `{"startDay":9,"endDay":3}`,
			field:   "startDay",
			rule:    "ltfield",
			param:   "endDay",
			message: "must be less than endDay",
		},
		{
			name:    "uuid",
			bind:    postBound[review.CreateRequest],
			body:    `{"review":"Lovely","rating":5,"tour":"not-a-uuid"}`,
			field:   "tour",
			rule:    "uuid",
			message: "must be a valid UUID",
		},
		{
			name:    "string length",
			bind:    postBound[user.SignUpRequest],
			body:    `{"name":"Ann","email":"ann@example.com","password":"short","passwordConfirm":"short"}`,
			field:   "password",
			rule:    "min",
			param:   "8",
			message: "must be at least 8 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := tt.bind(t, tt.body)
			require.Equal(t, http.StatusBadRequest, code)

			fe, ok := fieldsByName(resp.Error.Details.Fields)[tt.field]
			require.True(t, ok, "no error for %q in %+v", tt.field, resp.Error.Details.Fields)
			assert.Equal(t, tt.rule, fe.Rule)
			assert.Equal(t, tt.param, fe.Param)
			assert.Equal(t, tt.message, fe.Message)
		})
	}
}

func TestBindTypeMismatch(t *testing.T) {
	code, resp := postBound[tour.CreateRequest](t, `{"name":"The Forest Hiker","duration":"five"}`)
	require.Equal(t, http.StatusBadRequest, code)

	assert.Equal(t, "invalid_json_type", resp.Error.Details.JSON)
	assert.Equal(t, "duration", resp.Error.Details.Field)
	require.NotEmpty(t, resp.Error.Details.Fields)
	assert.Equal(t, "type", resp.Error.Details.Fields[0].Rule)
}

func TestBindSyntaxError(t *testing.T) {
	code, resp := postBound[tour.CreateRequest](t, `{"name" "x"}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_json_syntax", resp.Error.Details.JSON)
}

func TestBindAcceptsValidBody(t *testing.T) {
	code, _ := postBound[dayWindow](t, `{"startDay":1,"endDay":3}`)
	assert.Equal(t, http.StatusCreated, code)
}
