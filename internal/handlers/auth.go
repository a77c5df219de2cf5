package handlers

import (
	"errors"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"github.com/example/foodlist/internal/auth"
	"github.com/example/foodlist/internal/utils"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	sessions *auth.Service
	logger   *slog.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(sessions *auth.Service, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{sessions: sessions, logger: logger}
}

type phoneCheckRequest struct {
	PhoneNumber string `json:"phone_number"`
}

func (r phoneCheckRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PhoneNumber, validation.Required, validation.Length(1, 20), validation.By(validPhone)),
	)
}

func validPhone(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := utils.NormalizePhone(s)
	return err
}

// PhoneCheck provisions an unknown phone number or, for a known one, sends a
// login confirmation prompt to its owner.
func (h *AuthHandler) PhoneCheck(c *fiber.Ctx) error {
	var req phoneCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	result, err := h.sessions.CheckPhone(c.UserContext(), req.PhoneNumber)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user_id":                            result.UserID,
		"exists":                             result.Exists,
		"has_confirmation_message_been_sent": result.ConfirmationSent,
	})
}

type checkTokenRequest struct {
	Token string `json:"token"`
}

func (r checkTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required, validation.Length(1, 1024)),
	)
}

// CheckToken reports whether a token is the valid, current token of a user.
// An expired token deactivates its owner.
func (h *AuthHandler) CheckToken(c *fiber.Ctx) error {
	var req checkTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Token = strings.TrimSpace(req.Token)
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"is_valid": false,
			"errors":   err,
		})
	}

	user, err := h.sessions.ValidateToken(c.UserContext(), req.Token)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"is_valid": true, "user_id": user.ID})
	case errors.Is(err, auth.ErrExpiredToken), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUnknownUser):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"is_valid": false,
			"errors":   fiber.Map{"token": err.Error()},
		})
	default:
		return err
	}
}

type managerLoginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

func (r managerLoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PhoneNumber, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 128)),
	)
}

// ManagerLogin authenticates staff by phone and password and returns their token.
func (h *AuthHandler) ManagerLogin(c *fiber.Ctx) error {
	var req managerLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	user, err := h.sessions.LoginWithPassword(c.UserContext(), req.PhoneNumber, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	h.logger.Info("manager logged in", slog.String("user_id", user.ID.String()))
	return c.JSON(fiber.Map{
		"success": true,
		"token":   *user.AuthToken,
		"user":    user,
	})
}
