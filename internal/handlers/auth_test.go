package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/foodlist/internal/auth"
	"github.com/example/foodlist/internal/logging"
	"github.com/example/foodlist/internal/middleware"
	"github.com/example/foodlist/internal/store"
	"github.com/example/foodlist/internal/utils"
)

type promptRecorder struct {
	sent []int64
}

func (p *promptRecorder) SendConfirmationPrompt(_ context.Context, telegramID int64) error {
	p.sent = append(p.sent, telegramID)
	return nil
}

type authFixture struct {
	app      *fiber.App
	sessions *auth.Service
	users    *store.MemoryStore
	prompts  *promptRecorder
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tokens, err := auth.NewTokenService("handler-secret", "HS256")
	require.NoError(t, err)

	users := store.NewMemoryStore()
	prompts := &promptRecorder{}
	sessions := auth.NewService(users, tokens, prompts, time.Hour, logging.Discard())
	gate := auth.NewGate(sessions, logging.Discard())

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logging.Discard())})
	h := NewAuthHandler(sessions, logging.Discard())
	profile := NewProfileHandler(users)
	api := app.Group("/api/v1")
	api.Post("/phone-check", h.PhoneCheck)
	api.Post("/check-token", h.CheckToken)
	api.Post("/auth/manager-login", h.ManagerLogin)
	api.Get("/profile", middleware.AuthMiddleware(gate), profile.GetProfile)
	api.Put("/profile", middleware.AuthMiddleware(gate), profile.UpdateProfile)

	return &authFixture{app: app, sessions: sessions, users: users, prompts: prompts}
}

func (f *authFixture) do(t *testing.T, method, path, body, token string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp.StatusCode, payload
}

func TestPhoneCheckEndpoint(t *testing.T) {
	f := newAuthFixture(t)

	status, body := f.do(t, http.MethodPost, "/api/v1/phone-check", `{"phone_number":"+998901234567"}`, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["exists"])
	assert.Equal(t, false, body["has_confirmation_message_been_sent"])
	assert.NotEmpty(t, body["user_id"])

	user, err := f.users.FindByPhone(context.Background(), "+998901234567")
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	status, body = f.do(t, http.MethodPost, "/api/v1/phone-check", `{"phone_number":"998901234567"}`, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["exists"])
	assert.Equal(t, true, body["has_confirmation_message_been_sent"])
	assert.Equal(t, user.ID.String(), body["user_id"])
}

func TestPhoneCheckValidation(t *testing.T) {
	f := newAuthFixture(t)

	for _, payload := range []string{`{}`, `{"phone_number":"12345"}`, `{"phone_number":"+99890abc4567"}`} {
		status, body := f.do(t, http.MethodPost, "/api/v1/phone-check", payload, "")
		assert.Equal(t, http.StatusBadRequest, status, payload)
		assert.Contains(t, body["errors"], "phone_number", payload)
	}
}

func TestCheckTokenEndpoint(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, _, err := f.sessions.RegisterByChannel(ctx, auth.ChannelContact{TelegramID: 5, PhoneNumber: "998901234567"})
	require.NoError(t, err)

	status, body := f.do(t, http.MethodPost, "/api/v1/check-token", `{"token":"`+*user.AuthToken+`"}`, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["is_valid"])
	assert.Equal(t, user.ID.String(), body["user_id"])

	status, body = f.do(t, http.MethodPost, "/api/v1/check-token", `{"token":"garbage"}`, "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["is_valid"])
	assert.NotEmpty(t, body["errors"])

	status, body = f.do(t, http.MethodPost, "/api/v1/check-token", `{"token":""}`, "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["is_valid"])
}

func TestProfileRequiresActiveUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	status, body := f.do(t, http.MethodGet, "/api/v1/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "authentication failed", body["error"])

	user, _, err := f.sessions.RegisterByChannel(ctx, auth.ChannelContact{TelegramID: 8, PhoneNumber: "998901234567", FullName: "Aziz"})
	require.NoError(t, err)
	token := *user.AuthToken

	status, body = f.do(t, http.MethodGet, "/api/v1/profile", "", token)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "Aziz", data["full_name"])
	assert.NotContains(t, data, "auth_token")

	status, body = f.do(t, http.MethodPut, "/api/v1/profile", `{"full_name":"Aziz Karimov"}`, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Aziz Karimov", body["data"].(map[string]any)["full_name"])

	_, err = f.sessions.OnConfirmationReply(ctx, 8, auth.ChoiceReject)
	require.NoError(t, err)

	status, body = f.do(t, http.MethodGet, "/api/v1/profile", "", token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "authentication failed", body["error"])
}

func TestManagerLoginEndpoint(t *testing.T) {
	utils.PasswordCost = bcrypt.MinCost
	t.Cleanup(func() { utils.PasswordCost = bcrypt.DefaultCost })

	f := newAuthFixture(t)
	_, err := f.sessions.EnsureManager(context.Background(), "998901112233", "s3cret-pass")
	require.NoError(t, err)

	status, body := f.do(t, http.MethodPost, "/api/v1/auth/manager-login", `{"phone_number":"998901112233","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid credentials", body["error"])

	status, body = f.do(t, http.MethodPost, "/api/v1/auth/manager-login", `{"phone_number":"998901112233","password":"s3cret-pass"}`, "")
	require.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	status, _ = f.do(t, http.MethodGet, "/api/v1/profile", "", token)
	assert.Equal(t, http.StatusOK, status)
}
