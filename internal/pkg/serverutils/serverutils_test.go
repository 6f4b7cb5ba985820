package serverutils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/internal/pkg/ratelimit"
	"ai-docqa-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errGone = errors.New("thing not found")

func decode(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestErrorHandlerMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"mapped sentinel", fmt.Errorf("load: %w", errGone), 404},
		{"input", apperror.New(apperror.KindInput, "ask", "question is empty"), 400},
		{"not found kind", apperror.New(apperror.KindNotFound, "feedback", "chunk 3 not found"), 404},
		{"conflict kind", apperror.New(apperror.KindConflict, "x", "busy"), 409},
		{"transient", apperror.Transient("generate", context.DeadlineExceeded), 503},
		{"terminal upstream", apperror.Terminal("generate", errors.New("policy")), 502},
		{"fiber error", fiber.NewError(fiber.StatusUnprocessableEntity, "bad body"), 422},
		{"validation", &ValidationError{Fields: map[string]string{"question": "required"}}, 400},
		{"unknown", errors.New("boom"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware(logger.NewNopLogger(), StatusMapping{Err: errGone, Status: 404}))
			app.Get("/", func(ctx *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body := decode(t, resp.Body)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, float64(tt.status), body["code"])
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Question string `json:"question" validate:"required"`
		TopK     int    `json:"top_k" validate:"omitempty,min=1,max=20"`
	}

	assert.NoError(t, ValidateRequest(req{Question: "why?"}))

	err := ValidateRequest(req{TopK: 50})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{"question": "required", "top_k": "max=20"}, verr.Fields)
}

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestJwtMiddleware(t *testing.T) {
	userId := uuid.New()
	app := fiber.New()
	app.Use(NewJwtMiddleware("secret"))
	app.Get("/", func(ctx *fiber.Ctx) error { return ctx.SendString(UserID(ctx).String()) })

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", 401},
		{"wrong secret", "Bearer " + signed(t, "other", jwt.MapClaims{"user_id": userId.String()}), 401},
		{"bad user id", "Bearer " + signed(t, "secret", jwt.MapClaims{"user_id": "nope"}), 401},
		{"valid", "Bearer " + signed(t, "secret", jwt.MapClaims{"user_id": userId.String()}), 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == 200 {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, userId.String(), string(body))
			}
		})
	}
}

type stubLimiter struct {
	res ratelimit.Result
	err error
}

func (s stubLimiter) Allow(ctx context.Context, key string) (ratelimit.Result, error) {
	return s.res, s.err
}

func TestRateLimitMiddleware(t *testing.T) {
	newApp := func(l ratelimit.Limiter) *fiber.App {
		app := fiber.New()
		app.Use(RateLimitMiddleware(l, "ask", logger.NewNopLogger()))
		app.Get("/", func(ctx *fiber.Ctx) error { return ctx.SendStatus(fiber.StatusOK) })
		return app
	}

	resp, err := newApp(stubLimiter{res: ratelimit.Result{Allowed: false, RetryAfter: 1500 * time.Millisecond}}).Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get("Retry-After"))
	body := decode(t, resp.Body)
	assert.Equal(t, float64(2), body["data"].(map[string]interface{})["retry_after"])

	resp, err = newApp(stubLimiter{err: errors.New("redis down")}).Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
