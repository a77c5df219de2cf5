package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/foodlist/internal/logging"
	"github.com/example/foodlist/internal/models"
)

type stubGate map[string]*models.UserProfile

func (g stubGate) Authenticate(_ context.Context, token string) (*models.UserProfile, error) {
	if user, ok := g[token]; ok {
		return user, nil
	}
	return nil, errors.New("authentication failed")
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard())})
}

func decode(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&payload))
	return payload
}

func TestAuthMiddleware(t *testing.T) {
	customer := &models.UserProfile{Type: models.UserTypeCustomer, IsActive: true, PhoneNumber: "+998901111111"}
	manager := &models.UserProfile{Type: models.UserTypeManager, IsActive: true, PhoneNumber: "+998902222222"}
	gate := stubGate{"customer-token": customer, "manager-token": manager}

	app := newApp()
	app.Get("/me", AuthMiddleware(gate), func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(fiber.Map{"phone": user.PhoneNumber})
	})
	app.Get("/admin", AuthMiddleware(gate), RequireManager(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	cases := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing header", "/me", "", fiber.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic abc", fiber.StatusUnauthorized},
		{"empty token", "/me", "Bearer ", fiber.StatusUnauthorized},
		{"unknown token", "/me", "Bearer nope", fiber.StatusUnauthorized},
		{"customer", "/me", "Bearer customer-token", fiber.StatusOK},
		{"lowercase scheme", "/me", "bearer customer-token", fiber.StatusOK},
		{"customer on manager route", "/admin", "Bearer customer-token", fiber.StatusForbidden},
		{"manager", "/admin", "Bearer manager-token", fiber.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			if tc.status == fiber.StatusUnauthorized {
				payload := decode(t, resp.Body)
				assert.Equal(t, false, payload["success"])
				assert.Equal(t, "authentication failed", payload["error"])
			}
		})
	}
}

func TestPhoneCheckRateLimit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := newApp()
	app.Post("/phone-check", PhoneCheckRateLimit(cache, 2, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	send := func(phone string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/phone-check", strings.NewReader(`{"phone_number":"`+phone+`"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, send("998901234567"))
	assert.Equal(t, fiber.StatusOK, send("+998901234567"))
	assert.Equal(t, fiber.StatusTooManyRequests, send("+998 90 123 45 67"))
	assert.Equal(t, fiber.StatusOK, send("998907654321"))

	assert.Equal(t, time.Minute, mr.TTL("rl:phone-check:+998901234567"))

	mr.FastForward(61 * time.Second)
	assert.Equal(t, fiber.StatusOK, send("998901234567"))
}

func TestPhoneCheckRateLimitExpiresStaleCounter(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	const key = "rl:phone-check:+998901234567"
	require.NoError(t, mr.Set(key, "7"))
	require.Zero(t, mr.TTL(key))

	app := newApp()
	app.Post("/phone-check", PhoneCheckRateLimit(cache, 2, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	send := func() int {
		req := httptest.NewRequest(fiber.MethodPost, "/phone-check", strings.NewReader(`{"phone_number":"+998901234567"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusTooManyRequests, send())
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(61 * time.Second)
	assert.Equal(t, fiber.StatusOK, send())
}

func TestPhoneCheckRateLimitWithoutRedis(t *testing.T) {
	app := newApp()
	app.Post("/phone-check", PhoneCheckRateLimit(nil, 1, nil), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/phone-check", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestRequestID(t *testing.T) {
	app := newApp()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(RequestIDHeader).(string))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	generated := resp.Header.Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, generated, string(body))

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Header.Get(RequestIDHeader))
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	app := newApp()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("pq: connection refused")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	payload := decode(t, resp.Body)
	assert.Equal(t, "internal server error", payload["error"])
}
