package handlers

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"github.com/example/foodlist/internal/middleware"
	"github.com/example/foodlist/internal/models"
	"github.com/example/foodlist/internal/store"
)

// ProfileHandler manages user profile endpoints.
type ProfileHandler struct {
	users store.UserStore
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(users store.UserStore) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// GetProfile returns authenticated user profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication failed")
	}
	return c.JSON(fiber.Map{"success": true, "data": user})
}

type updateProfileRequest struct {
	FullName string `json:"full_name"`
}

func (r updateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 255)),
	)
}

// UpdateProfile updates user profile fields.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication failed")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	user, err := h.users.Mutate(c.UserContext(), current.ID, func(u *models.UserProfile) (bool, error) {
		if u.FullName == req.FullName {
			return false, nil
		}
		u.FullName = req.FullName
		return true, nil
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}
